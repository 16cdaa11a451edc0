package picking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksense/internal/core/apperror"
)

func order(orderID string, priority Priority, items ...OrderItem) Order {
	return Order{ID: orderID, Priority: priority, Items: items}
}

func item(productID, zone string, qty int) OrderItem {
	return OrderItem{ProductID: productID, Zone: zone, Quantity: qty}
}

// planOrFail is a helper for tests that expect a clean plan.
func planOrFail(t *testing.T, orders []Order, maxOrders, maxItems int) []Wave {
	t.Helper()
	planner := NewPlanner(DefaultConfig())
	waves, recordErrs, err := planner.PlanWaves(context.Background(), orders, maxOrders, maxItems)
	require.NoError(t, err)
	require.Empty(t, recordErrs)
	return waves
}

// TestPlanWaves_Completeness checks the plan-level conservation laws:
// every order in exactly one wave, total item count preserved.
func TestPlanWaves_Completeness(t *testing.T) {
	orders := []Order{
		order("O-1", PriorityStandard, item("P-1", "A1", 3), item("P-2", "B2", 2)),
		order("O-2", PriorityExpress, item("P-3", "C1", 4)),
		order("O-3", PriorityStandard, item("P-1", "A1", 1)),
		order("O-4", PriorityEconomy, item("P-4", "D1", 6), item("P-5", "A1", 2)),
		order("O-5", PriorityExpress, item("P-2", "B2", 5)),
	}

	wantItems := 0
	for _, o := range orders {
		wantItems += o.totalItems()
	}

	waves := planOrFail(t, orders, 2, 100)

	seen := make(map[string]int)
	gotItems := 0
	for _, w := range waves {
		for _, oid := range w.Orders {
			seen[oid]++
		}
		gotItems += w.TotalItems
	}

	require.Len(t, seen, len(orders), "every order must appear in the plan")
	for oid, count := range seen {
		assert.Equal(t, 1, count, "order %s must appear exactly once", oid)
	}
	assert.Equal(t, wantItems, gotItems, "total item count must be conserved")
}

func TestPlanWaves_BatchBounds(t *testing.T) {
	var orders []Order
	for i := 0; i < 7; i++ {
		orders = append(orders, order(
			string(rune('A'+i)), PriorityStandard, item("P-1", "A1", 3),
		))
	}

	waves := planOrFail(t, orders, 2, 6)
	for _, w := range waves {
		assert.LessOrEqual(t, len(w.Orders), 2)
		assert.LessOrEqual(t, w.TotalItems, 6)
	}

	// Tighter item bound forces one order per wave even though the
	// order bound would allow two.
	waves = planOrFail(t, orders, 2, 5)
	for _, w := range waves {
		assert.Len(t, w.Orders, 1)
	}
}

// TestPlanWaves_OversizedOrder checks the documented exception: an
// unsplittable order over the item limit gets its own oversized wave
// instead of being dropped.
func TestPlanWaves_OversizedOrder(t *testing.T) {
	orders := []Order{
		order("small-1", PriorityStandard, item("P-1", "A1", 2)),
		order("huge", PriorityStandard, item("P-2", "B1", 50)),
		order("small-2", PriorityStandard, item("P-3", "A1", 2)),
	}

	waves := planOrFail(t, orders, 10, 10)

	var oversized *Wave
	for i := range waves {
		for _, oid := range waves[i].Orders {
			if oid == "huge" {
				oversized = &waves[i]
			}
		}
	}
	require.NotNil(t, oversized, "oversized order must not be dropped")
	assert.Equal(t, []string{"huge"}, oversized.Orders, "oversized order rides alone")
	assert.Equal(t, 50, oversized.TotalItems)
}

func TestPlanWaves_PriorityTiers(t *testing.T) {
	orders := []Order{
		order("eco", PriorityEconomy, item("P-1", "A1", 1)),
		order("exp", PriorityExpress, item("P-2", "A1", 1)),
		order("std", PriorityStandard, item("P-3", "A1", 1)),
	}

	waves := planOrFail(t, orders, 10, 100)

	// Tiers never mix, so three waves, highest priority first.
	require.Len(t, waves, 3)
	assert.Equal(t, PriorityExpress, waves[0].Priority)
	assert.Equal(t, PriorityStandard, waves[1].Priority)
	assert.Equal(t, PriorityEconomy, waves[2].Priority)
	assert.Equal(t, []string{"exp"}, waves[0].Orders)
}

// TestPlanWaves_ZoneAffinity checks the greedy tie-break: the order
// sharing zones with the open wave is preferred over input order.
func TestPlanWaves_ZoneAffinity(t *testing.T) {
	orders := []Order{
		order("seed", PriorityStandard, item("P-1", "A1", 1)),
		order("far", PriorityStandard, item("P-2", "Z9", 1)),
		order("near", PriorityStandard, item("P-3", "A1", 1)),
	}

	waves := planOrFail(t, orders, 2, 100)

	require.Len(t, waves, 2)
	assert.Equal(t, []string{"seed", "near"}, waves[0].Orders)
	assert.Equal(t, []string{"far"}, waves[1].Orders)
}

func TestPlanWaves_Route(t *testing.T) {
	orders := []Order{
		order("O-1", PriorityStandard,
			item("P-1", "C3", 2),
			item("P-2", "A1", 1),
		),
		order("O-2", PriorityStandard,
			item("P-1", "C3", 3),
			item("P-3", "B2", 4),
		),
	}

	waves := planOrFail(t, orders, 5, 100)
	require.Len(t, waves, 1)
	w := waves[0]

	// One stop per distinct zone, lexicographic traversal order.
	require.Len(t, w.Route, 3)
	assert.Equal(t, "A1", w.Route[0].Zone)
	assert.Equal(t, "B2", w.Route[1].Zone)
	assert.Equal(t, "C3", w.Route[2].Zone)

	// Same product from both orders is merged into one pick line.
	require.Len(t, w.Route[2].Lines, 1)
	assert.Equal(t, PickLine{ProductID: "P-1", Quantity: 5}, w.Route[2].Lines[0])

	assert.Equal(t, 10, w.TotalItems)
	assert.Equal(t, 3, w.TotalProducts)
}

func TestPlanWaves_EstimatedTime(t *testing.T) {
	planner := NewPlanner(Config{
		SetupTime:   5 * time.Minute,
		PerItemTime: 20 * time.Second,
		PerZoneTime: 90 * time.Second,
	})

	orders := []Order{
		order("O-1", PriorityStandard, item("P-1", "A1", 3), item("P-2", "B2", 1)),
	}

	waves, recordErrs, err := planner.PlanWaves(context.Background(), orders, 5, 100)
	require.NoError(t, err)
	require.Empty(t, recordErrs)
	require.Len(t, waves, 1)

	// 5m setup + 4 items x 20s + 2 zones x 90s
	want := 5*time.Minute + 4*20*time.Second + 2*90*time.Second
	assert.Equal(t, want, waves[0].EstimatedTime)
}

func TestPlanWaves_EmptyInput(t *testing.T) {
	waves := planOrFail(t, nil, 5, 100)
	assert.Empty(t, waves, "empty queue yields an empty plan, not an error")
}

func TestPlanWaves_BadLimits(t *testing.T) {
	planner := NewPlanner(DefaultConfig())
	orders := []Order{order("O-1", PriorityStandard, item("P-1", "A1", 1))}

	for _, limits := range [][2]int{{0, 10}, {10, 0}, {-1, 10}, {10, -1}} {
		_, _, err := planner.PlanWaves(context.Background(), orders, limits[0], limits[1])
		if !apperror.IsConstraintViolation(err) {
			t.Fatalf("limits %v: want CONSTRAINT_VIOLATION, got %v", limits, err)
		}
	}
}

func TestPlanWaves_MalformedOrderSkipped(t *testing.T) {
	planner := NewPlanner(DefaultConfig())

	orders := []Order{
		order("good-1", PriorityStandard, item("P-1", "A1", 1)),
		order("bad", PriorityStandard, item("P-2", "A1", -5)),
		order("good-2", PriorityStandard, item("P-3", "A1", 1)),
		{ID: "no-priority", Priority: "rush", Items: []OrderItem{item("P-4", "A1", 1)}},
	}

	waves, recordErrs, err := planner.PlanWaves(context.Background(), orders, 10, 100)
	require.NoError(t, err, "malformed orders must not abort the plan")

	require.Len(t, waves, 1)
	assert.Equal(t, []string{"good-1", "good-2"}, waves[0].Orders)

	require.Len(t, recordErrs, 2)
	assert.Equal(t, 1, recordErrs[0].Index)
	assert.Equal(t, "bad", recordErrs[0].ID)
	assert.Equal(t, 3, recordErrs[1].Index)
	assert.True(t, apperror.IsInvalidInput(recordErrs[1].Err))
}
