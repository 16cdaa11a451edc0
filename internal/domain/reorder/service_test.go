package reorder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksense/internal/core/apperror"
	"stocksense/internal/core/types"
)

// canonicalHistory has mean 3 and population stddev exactly 1.5.
var canonicalHistory = []int{6, 0, 3, 3, 3, 3, 3, 3}

func constantHistory(value, days int) []int {
	h := make([]int, days)
	for i := range h {
		h[i] = value
	}
	return h
}

// TestCalculate_CanonicalFixture pins the worked example used as the
// regression anchor: stock=8, avg=3, stddev=1.5, lead=7 days, 95% level.
func TestCalculate_CanonicalFixture(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	point, err := calc.Calculate(context.Background(), Product{
		ID:           "P-100",
		Name:         "Canonical product",
		CurrentStock: 8,
		LeadTimeDays: 7,
		SalesHistory: canonicalHistory,
	}, 95, 30)
	require.NoError(t, err)

	wantSafety := 1.65 * 1.5 * math.Sqrt(7) // ≈ 6.548
	assert.InDelta(t, 3.0, point.AvgDailySales, 1e-9)
	assert.InDelta(t, wantSafety, point.SafetyStock, 1e-9)
	assert.InDelta(t, wantSafety+21, point.ReorderPoint, 1e-9)

	// 8 ≤ 6.548 is false but 8 ≤ 27.548 is true: reorder_now, not critical.
	assert.Equal(t, StatusReorderNow, point.Status)

	// round(27.548 + 3x30 - 8) = 110
	assert.Equal(t, 110, point.ReorderQuantity)
	assert.InDelta(t, 8.0/3.0, point.DaysOfStock, 1e-9)
}

// TestCalculate_SafetyStockMonotonic checks that safety stock never
// decreases as the service level rises.
func TestCalculate_SafetyStockMonotonic(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	product := Product{
		ID:           "P-1",
		CurrentStock: 50,
		LeadTimeDays: 7,
		SalesHistory: canonicalHistory,
	}

	prev := -1.0
	for _, level := range []int{90, 95, 98, 99} {
		point, err := calc.Calculate(context.Background(), product, level, 30)
		require.NoError(t, err, "level %d", level)
		if point.SafetyStock < prev {
			t.Fatalf("safety stock decreased at level %d: %f < %f", level, point.SafetyStock, prev)
		}
		prev = point.SafetyStock
	}
}

func TestCalculate_StatusClassification(t *testing.T) {
	// Constant demand of 4/day over lead time 5: safetyStock = 0,
	// reorderPoint = 20, overstock ceiling = 40.
	history := constantHistory(4, 30)

	tests := []struct {
		name        string
		stock       int
		wantStatus  Status
		wantQtyZero bool
	}{
		{"at safety stock", 0, StatusCritical, false},
		{"below reorder point", 15, StatusReorderNow, false},
		{"at reorder point", 20, StatusReorderNow, false},
		{"between reorder and ceiling", 30, StatusOK, true},
		{"at overstock ceiling", 40, StatusOK, true},
		{"above overstock ceiling", 41, StatusOverstock, true},
	}

	calc := NewCalculator(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, err := calc.Calculate(context.Background(), Product{
				ID:           "P-2",
				CurrentStock: tt.stock,
				LeadTimeDays: 5,
				SalesHistory: history,
			}, 95, 30)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, point.Status)
			if tt.wantQtyZero {
				assert.Zero(t, point.ReorderQuantity,
					"reorder quantity must be zero for %s", point.Status)
			} else {
				assert.Positive(t, point.ReorderQuantity)
			}
		})
	}
}

// TestCalculate_ZeroVariance checks the degenerate constant history:
// stddev 0 must yield a deterministic, non-NaN safety stock of 0.
func TestCalculate_ZeroVariance(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	point, err := calc.Calculate(context.Background(), Product{
		ID:           "P-3",
		CurrentStock: 100,
		LeadTimeDays: 10,
		SalesHistory: constantHistory(5, 60),
	}, 99, 30)
	require.NoError(t, err)

	assert.Zero(t, point.SafetyStock)
	assert.False(t, math.IsNaN(point.ReorderPoint))
	assert.InDelta(t, 50.0, point.ReorderPoint, 1e-9)
}

func TestCalculate_ZeroDemand(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	point, err := calc.Calculate(context.Background(), Product{
		ID:           "P-4",
		CurrentStock: 12,
		LeadTimeDays: 7,
		SalesHistory: constantHistory(0, 30),
	}, 95, 30)
	require.NoError(t, err)

	assert.True(t, math.IsInf(point.DaysOfStock, 1), "days of stock must be +Inf with zero demand")
}

func TestCalculate_Invalid(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	ctx := context.Background()
	valid := Product{ID: "P-5", CurrentStock: 10, LeadTimeDays: 7, SalesHistory: canonicalHistory}

	tests := []struct {
		name   string
		mutate func(Product) Product
		level  int
		cover  int
	}{
		{"zero lead time", func(p Product) Product { p.LeadTimeDays = 0; return p }, 95, 30},
		{"negative lead time", func(p Product) Product { p.LeadTimeDays = -3; return p }, 95, 30},
		{"negative stock", func(p Product) Product { p.CurrentStock = -1; return p }, 95, 30},
		{"empty history", func(p Product) Product { p.SalesHistory = nil; return p }, 95, 30},
		{"missing id", func(p Product) Product { p.ID = ""; return p }, 95, 30},
		{"unsupported service level", func(p Product) Product { return p }, 93, 30},
		{"non-positive coverage", func(p Product) Product { return p }, 95, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(ctx, tt.mutate(valid), tt.level, tt.cover)
			if !apperror.IsInvalidInput(err) {
				t.Fatalf("want INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestCalculate_ShortHistoryAdvisory(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	point, err := calc.Calculate(context.Background(), Product{
		ID:           "P-6",
		CurrentStock: 10,
		LeadTimeDays: 7,
		SalesHistory: []int{3, 4, 2},
	}, 95, 30)
	require.NoError(t, err, "short history must not error")
	assert.NotEmpty(t, point.Advisory)
}

func TestCalculate_EstimatedOrderCost(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	point, err := calc.Calculate(context.Background(), Product{
		ID:           "P-7",
		CurrentStock: 8,
		LeadTimeDays: 7,
		SalesHistory: canonicalHistory,
		UnitCost:     types.MustMoney("2.50"),
	}, 95, 30)
	require.NoError(t, err)

	require.Equal(t, 110, point.ReorderQuantity)
	assert.True(t, point.EstimatedOrderCost.Equal(types.MustMoney("275.00")),
		"want 275.00, got %s", point.EstimatedOrderCost)
}

func TestCalculateBulk(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	products := []Product{
		{ID: "A", CurrentStock: 8, LeadTimeDays: 7, SalesHistory: canonicalHistory},
		{ID: "B", CurrentStock: 10, LeadTimeDays: 0, SalesHistory: canonicalHistory}, // malformed
		{ID: "C", CurrentStock: 200, LeadTimeDays: 7, SalesHistory: canonicalHistory},
	}

	points, recordErrs, err := calc.CalculateBulk(context.Background(), products, 95, 30)
	require.NoError(t, err, "one malformed record must not abort the batch")

	// Input order preserved for the valid records.
	require.Len(t, points, 2)
	assert.Equal(t, "A", points[0].ProductID)
	assert.Equal(t, "C", points[1].ProductID)

	require.Len(t, recordErrs, 1)
	assert.Equal(t, 1, recordErrs[0].Index)
	assert.Equal(t, "B", recordErrs[0].ID)
	assert.True(t, apperror.IsInvalidInput(recordErrs[0].Err))
}

func TestCalculateBulk_FailFastOnSharedParams(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	_, _, err := calc.CalculateBulk(context.Background(), []Product{
		{ID: "A", CurrentStock: 8, LeadTimeDays: 7, SalesHistory: canonicalHistory},
	}, 42, 30)
	if !apperror.IsInvalidInput(err) {
		t.Fatalf("unsupported shared service level must fail fast, got %v", err)
	}
}

func TestCalculateBulk_Empty(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	points, recordErrs, err := calc.CalculateBulk(context.Background(), nil, 95, 30)
	require.NoError(t, err)
	assert.Empty(t, points, "no data yet is an empty result, not an error")
	assert.Empty(t, recordErrs)
}

func TestSuggestReplenishment(t *testing.T) {
	points := []Point{
		{ProductID: "ok", CurrentStock: 30, ReorderPoint: 20, Status: StatusOK},
		{ProductID: "mild", CurrentStock: 18, ReorderPoint: 20, ReorderQuantity: 40, Status: StatusReorderNow},
		{ProductID: "worst", CurrentStock: 1, SafetyStock: 5, ReorderPoint: 20, ReorderQuantity: 80, Status: StatusCritical},
		{ProductID: "deep", CurrentStock: 5, ReorderPoint: 20, ReorderQuantity: 60, Status: StatusReorderNow},
	}

	suggestions := SuggestReplenishment(points)
	require.Len(t, suggestions, 3, "ok products are not suggested")

	assert.Equal(t, "worst", suggestions[0].ProductID)
	assert.Equal(t, "deep", suggestions[1].ProductID)
	assert.Equal(t, "mild", suggestions[2].ProductID)

	for i, s := range suggestions {
		assert.Equal(t, i+1, s.Priority)
	}
}
