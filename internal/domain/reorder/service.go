package reorder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"stocksense/internal/core/apperror"
	"stocksense/internal/domain/stats"
	"stocksense/pkg/logger"
)

// zScores maps supported service levels (percent) to Z-scores.
// No interpolation: callers must supply one of the supported levels.
var zScores = map[int]float64{
	90: 1.28,
	95: 1.65,
	98: 2.05,
	99: 2.33,
}

// Config holds the tunable thresholds of the calculator.
type Config struct {
	// OverstockMultiplier is the overstock ceiling as a multiple of the
	// reorder point. Stock above reorderPoint x multiplier is overstock.
	OverstockMultiplier float64

	// HistoryWindowDays is the recommended trailing window; shorter
	// histories still compute but carry a short-history advisory.
	HistoryWindowDays int
}

// DefaultConfig returns the standard calculator thresholds.
func DefaultConfig() Config {
	return Config{
		OverstockMultiplier: 2.0,
		HistoryWindowDays:   30,
	}
}

// Calculator computes reorder points from stock and demand snapshots.
// It is stateless and safe for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given thresholds.
func NewCalculator(cfg Config) *Calculator {
	if cfg.OverstockMultiplier <= 0 {
		cfg.OverstockMultiplier = DefaultConfig().OverstockMultiplier
	}
	if cfg.HistoryWindowDays <= 0 {
		cfg.HistoryWindowDays = DefaultConfig().HistoryWindowDays
	}
	return &Calculator{cfg: cfg}
}

// Calculate computes the replenishment recommendation for one product.
// serviceLevel is a supported percent (90, 95, 98, 99); coverageDays is
// the forecast horizon used to size the reorder quantity, not the
// reorder trigger itself.
func (c *Calculator) Calculate(
	ctx context.Context,
	p Product,
	serviceLevel int,
	coverageDays int,
) (Point, error) {
	z, err := c.validateParams(serviceLevel, coverageDays)
	if err != nil {
		return Point{}, err
	}
	if err := p.Validate(ctx); err != nil {
		return Point{}, err
	}

	summary, err := stats.Summarize(p.SalesHistory)
	if err != nil {
		return Point{}, fmt.Errorf("summarize sales history: %w", err)
	}

	safetyStock := z * summary.StdDev * math.Sqrt(float64(p.LeadTimeDays))
	reorderPoint := safetyStock + summary.Mean*float64(p.LeadTimeDays)

	daysOfStock := math.Inf(1)
	if summary.Mean > 0 {
		daysOfStock = float64(p.CurrentStock) / summary.Mean
	}

	status := c.classify(p.CurrentStock, safetyStock, reorderPoint)

	var reorderQty int
	if status.NeedsReplenishment() {
		target := reorderPoint + summary.Mean*float64(coverageDays)
		reorderQty = int(math.Max(0, math.Round(target-float64(p.CurrentStock))))
	}

	point := Point{
		ProductID:       p.ID,
		ProductName:     p.Name,
		CurrentStock:    p.CurrentStock,
		AvgDailySales:   summary.Mean,
		LeadTimeDays:    p.LeadTimeDays,
		SafetyStock:     safetyStock,
		ReorderPoint:    reorderPoint,
		ReorderQuantity: reorderQty,
		DaysOfStock:     daysOfStock,
		Status:          status,
	}

	if reorderQty > 0 && !p.UnitCost.IsZero() {
		point.EstimatedOrderCost = p.UnitCost.Mul(decimal.NewFromInt(int64(reorderQty)))
	}

	if len(p.SalesHistory) < c.cfg.HistoryWindowDays {
		advisory := apperror.NewInsufficientHistory(len(p.SalesHistory), c.cfg.HistoryWindowDays)
		point.Advisory = advisory.Message
		logger.Debug(ctx, "short sales history, estimate is less confident",
			"product_id", p.ID,
			"have_days", len(p.SalesHistory),
			"want_days", c.cfg.HistoryWindowDays,
		)
	}

	return point, nil
}

// CalculateBulk applies Calculate per product. Records are processed in
// parallel; results keep input order via indexed slots so rendering is
// reproducible. A malformed record is reported and skipped, it does not
// abort the batch; malformed shared parameters fail fast.
func (c *Calculator) CalculateBulk(
	ctx context.Context,
	products []Product,
	serviceLevel int,
	coverageDays int,
) ([]Point, []apperror.RecordError, error) {
	if _, err := c.validateParams(serviceLevel, coverageDays); err != nil {
		return nil, nil, err
	}
	if len(products) == 0 {
		return []Point{}, nil, nil
	}

	type slot struct {
		point Point
		err   error
	}
	slots := make([]slot, len(products))

	var wg sync.WaitGroup
	for i := range products {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pt, err := c.Calculate(ctx, products[i], serviceLevel, coverageDays)
			slots[i] = slot{point: pt, err: err}
		}(i)
	}
	wg.Wait()

	points := make([]Point, 0, len(products))
	var recordErrs []apperror.RecordError
	for i, s := range slots {
		if s.err != nil {
			recordErrs = append(recordErrs, apperror.RecordError{
				Index: i,
				ID:    products[i].ID,
				Err:   s.err,
			})
			continue
		}
		points = append(points, s.point)
	}

	logger.Info(ctx, "calculated reorder points",
		"products", len(products),
		"computed", len(points),
		"skipped", len(recordErrs),
		"service_level", serviceLevel,
		"coverage_days", coverageDays,
	)
	for _, re := range recordErrs {
		logger.Warn(ctx, "skipped malformed product record",
			"index", re.Index,
			"product_id", re.ID,
			"error", re.Err,
		)
	}

	return points, recordErrs, nil
}

// SuggestReplenishment turns computed reorder points into a ranked
// purchase-order suggestion list: products needing stock, most urgent
// first. Priority 1 is the worst deficit.
func SuggestReplenishment(points []Point) []Suggestion {
	suggestions := make([]Suggestion, 0, len(points))
	for _, pt := range points {
		if pt.Status.NeedsReplenishment() {
			suggestions = append(suggestions, Suggestion{Point: pt})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Status != b.Status {
			return a.Status == StatusCritical
		}
		return deficitRatio(a.Point) > deficitRatio(b.Point)
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions
}

// deficitRatio measures how far below the reorder point stock has fallen,
// relative to the reorder point itself.
func deficitRatio(p Point) float64 {
	if p.ReorderPoint <= 0 {
		return 0
	}
	return (p.ReorderPoint - float64(p.CurrentStock)) / p.ReorderPoint
}

func (c *Calculator) validateParams(serviceLevel, coverageDays int) (float64, error) {
	z, ok := zScores[serviceLevel]
	if !ok {
		return 0, apperror.NewInvalidInput(
			fmt.Sprintf("unsupported service level %d%%, supported: 90, 95, 98, 99", serviceLevel),
		).WithDetail("service_level", serviceLevel)
	}
	if coverageDays <= 0 {
		return 0, apperror.NewInvalidInput("coverage days must be positive").
			WithDetail("coverage_days", coverageDays)
	}
	return z, nil
}

// classify applies the status precedence: critical, reorder_now,
// overstock, ok.
func (c *Calculator) classify(stock int, safetyStock, reorderPoint float64) Status {
	s := float64(stock)
	switch {
	case s <= safetyStock:
		return StatusCritical
	case s <= reorderPoint:
		return StatusReorderNow
	case s > reorderPoint*c.cfg.OverstockMultiplier:
		return StatusOverstock
	default:
		return StatusOK
	}
}
