// Package reorder provides the reorder point calculator.
// It converts current stock, sales history and lead time into a
// replenishment recommendation using a statistical safety-stock model
// (not a cost-minimizing economic-order-quantity model).
package reorder

import (
	"context"
	"fmt"

	"stocksense/internal/core/apperror"
	"stocksense/internal/core/types"
)

// Status classifies how urgent replenishment is for a product.
type Status string

const (
	// StatusCritical - stock is at or below safety stock
	StatusCritical Status = "critical"
	// StatusReorderNow - stock is at or below the reorder point
	StatusReorderNow Status = "reorder_now"
	// StatusOK - stock is between reorder point and the overstock ceiling
	StatusOK Status = "ok"
	// StatusOverstock - stock exceeds the overstock ceiling
	StatusOverstock Status = "overstock"
)

// NeedsReplenishment reports whether the status warrants ordering stock.
func (s Status) NeedsReplenishment() bool {
	return s == StatusCritical || s == StatusReorderNow
}

// Product is the per-product input snapshot for the calculator.
// SalesHistory is a trailing daily quantity series, most recent day last;
// the caller assembles it with gap days already filled as zeros.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"currentStock"`
	LeadTimeDays int    `json:"leadTimeDays"`
	SalesHistory []int  `json:"salesHistory"`

	// UnitCost enables order cost estimation when non-zero
	UnitCost types.Money `json:"unitCost,omitempty"`
}

// Validate implements input validation for a single product record.
func (p *Product) Validate(ctx context.Context) error {
	if p.ID == "" {
		return apperror.NewInvalidInput("product id is required")
	}
	if p.LeadTimeDays <= 0 {
		return apperror.NewInvalidInput(
			fmt.Sprintf("product %s: lead time must be positive", p.ID),
		).WithDetail("lead_time_days", p.LeadTimeDays)
	}
	if p.CurrentStock < 0 {
		return apperror.NewInvalidInput(
			fmt.Sprintf("product %s: current stock must not be negative", p.ID),
		).WithDetail("current_stock", p.CurrentStock)
	}
	if len(p.SalesHistory) == 0 {
		return apperror.NewInvalidInput(
			fmt.Sprintf("product %s: sales history must contain at least one day", p.ID),
		)
	}
	return nil
}

// Point is the replenishment recommendation for one product.
// Recomputed wholesale on every call, never mutated in place.
type Point struct {
	ProductID     string  `json:"productId"`
	ProductName   string  `json:"productName"`
	CurrentStock  int     `json:"currentStock"`
	AvgDailySales float64 `json:"avgDailySales"`
	LeadTimeDays  int     `json:"leadTimeDays"`
	SafetyStock   float64 `json:"safetyStock"`
	ReorderPoint  float64 `json:"reorderPoint"`

	// ReorderQuantity is zero whenever Status does not warrant ordering
	ReorderQuantity int `json:"reorderQuantity"`

	// DaysOfStock is +Inf when average daily sales is zero
	DaysOfStock float64 `json:"-"`

	Status Status `json:"status"`

	// EstimatedOrderCost is ReorderQuantity x unit cost; zero when the
	// input carried no unit cost or no order is needed
	EstimatedOrderCost types.Money `json:"estimatedOrderCost,omitempty"`

	// Advisory carries the short-history warning, empty otherwise
	Advisory string `json:"advisory,omitempty"`
}

// Suggestion is a priority-ranked replenishment line for purchase-order
// tooling. Priority 1 is the most urgent.
type Suggestion struct {
	Point
	Priority int `json:"priority"`
}
