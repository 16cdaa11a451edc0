// Package main runs the inventory intelligence engine end to end over a
// synthetic snapshot: reorder recommendations, demand anomaly alerts and
// a wave-picking plan, logged to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	appctx "stocksense/internal/core/context"
	"stocksense/internal/core/types"
	"stocksense/internal/domain/anomaly"
	"stocksense/internal/domain/picking"
	"stocksense/internal/domain/reorder"
	"stocksense/internal/domain/stats"
	"stocksense/pkg/logger"
	"stocksense/pkg/mockdata"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	ctx = appctx.WithRun(ctx, appctx.NewRunContext(time.Now()))

	days := getEnvInt("HISTORY_DAYS", 90)
	coverageDays := getEnvInt("COVERAGE_DAYS", 30)
	serviceLevel := getEnvInt("SERVICE_LEVEL", 95)

	log.Infow("starting engine demo",
		"history_days", days,
		"coverage_days", coverageDays,
		"service_level", serviceLevel,
	)

	catalog := demoCatalog(days)

	runReorder(ctx, catalog, serviceLevel, coverageDays)
	runAnomalies(ctx, catalog)
	runPicking(ctx)

	log.Info("engine demo finished")
}

// demoProduct bundles the snapshot facts the engines consume.
type demoProduct struct {
	id       string
	name     string
	stock    int
	leadTime int
	unitCost types.Money
	history  []stats.Point
}

func demoCatalog(days int) []demoProduct {
	catalog := []demoProduct{
		{id: "SKU-1001", name: "Espresso beans 1kg", stock: 14, leadTime: 7, unitCost: types.MustMoney("8.40")},
		{id: "SKU-1002", name: "Filter paper 100pk", stock: 230, leadTime: 3, unitCost: types.MustMoney("1.95")},
		{id: "SKU-1003", name: "Ceramic mug 350ml", stock: 4, leadTime: 14, unitCost: types.MustMoney("3.20")},
		{id: "SKU-1004", name: "Cold brew bottle", stock: 60, leadTime: 10, unitCost: types.MustMoney("5.10")},
	}

	avg := []float64{12, 18, 2.5, 6}
	for i := range catalog {
		catalog[i].history = mockdata.GenerateSalesHistory(catalog[i].id, days, avg[i], 0.35)
	}

	// Force a stockout day so the anomaly demo has something to find.
	last := len(catalog[0].history) - 1
	catalog[0].history[last].Quantity = 0

	return catalog
}

func runReorder(ctx context.Context, catalog []demoProduct, serviceLevel, coverageDays int) {
	products := make([]reorder.Product, len(catalog))
	for i, p := range catalog {
		products[i] = reorder.Product{
			ID:           p.id,
			Name:         p.name,
			CurrentStock: p.stock,
			LeadTimeDays: p.leadTime,
			SalesHistory: stats.Quantities(p.history),
			UnitCost:     p.unitCost,
		}
	}

	calc := reorder.NewCalculator(reorder.DefaultConfig())
	points, _, err := calc.CalculateBulk(ctx, products, serviceLevel, coverageDays)
	if err != nil {
		logger.Fatal(ctx, "reorder calculation failed", "error", err)
	}

	for _, pt := range points {
		logger.Info(ctx, "reorder point",
			"product_id", pt.ProductID,
			"status", pt.Status,
			"stock", pt.CurrentStock,
			"reorder_point", fmt.Sprintf("%.1f", pt.ReorderPoint),
			"reorder_qty", pt.ReorderQuantity,
		)
	}

	for _, s := range reorder.SuggestReplenishment(points) {
		logger.Info(ctx, "replenishment suggestion",
			"priority", s.Priority,
			"product_id", s.ProductID,
			"order_qty", s.ReorderQuantity,
			"estimated_cost", s.EstimatedOrderCost,
		)
	}
}

func runAnomalies(ctx context.Context, catalog []demoProduct) {
	histories := make([]anomaly.ProductHistory, len(catalog))
	for i, p := range catalog {
		histories[i] = anomaly.ProductHistory{ID: p.id, Name: p.name, History: p.history}
	}

	detector := anomaly.NewDetector(anomaly.DefaultConfig())
	alerts, _, err := detector.DetectBulk(ctx, histories, 0)
	if err != nil {
		logger.Fatal(ctx, "anomaly detection failed", "error", err)
	}

	for _, a := range alerts {
		logger.Info(ctx, "anomaly alert",
			"product_id", a.ProductID,
			"kind", a.Kind,
			"severity", a.Severity,
			"date", a.Date.Format("2006-01-02"),
			"message", a.Message,
		)
	}
}

func runPicking(ctx context.Context) {
	orders := []picking.Order{
		{ID: "ORD-9001", Priority: picking.PriorityExpress, Items: []picking.OrderItem{
			{ProductID: "SKU-1001", Zone: "A1", Quantity: 2},
			{ProductID: "SKU-1003", Zone: "B2", Quantity: 1},
		}},
		{ID: "ORD-9002", Priority: picking.PriorityStandard, Items: []picking.OrderItem{
			{ProductID: "SKU-1002", Zone: "A2", Quantity: 6},
		}},
		{ID: "ORD-9003", Priority: picking.PriorityExpress, Items: []picking.OrderItem{
			{ProductID: "SKU-1001", Zone: "A1", Quantity: 1},
		}},
		{ID: "ORD-9004", Priority: picking.PriorityStandard, Items: []picking.OrderItem{
			{ProductID: "SKU-1004", Zone: "C1", Quantity: 12},
			{ProductID: "SKU-1002", Zone: "A2", Quantity: 2},
		}},
	}

	planner := picking.NewPlanner(picking.DefaultConfig())
	waves, _, err := planner.PlanWaves(ctx, orders, 3, 20)
	if err != nil {
		logger.Fatal(ctx, "wave planning failed", "error", err)
	}

	for _, w := range waves {
		zones := make([]string, len(w.Route))
		for i, stop := range w.Route {
			zones[i] = stop.Zone
		}
		logger.Info(ctx, "picking wave",
			"wave_id", w.ID,
			"priority", w.Priority,
			"orders", w.Orders,
			"total_items", w.TotalItems,
			"route", zones,
			"estimated_time", w.EstimatedTime,
		)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
