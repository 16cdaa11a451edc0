package picking

import (
	"context"
	"sort"
	"time"

	"stocksense/internal/core/apperror"
	"stocksense/internal/core/id"
	"stocksense/pkg/logger"
)

// Config holds the linear time-estimate coefficients. They are tunable
// operational parameters, not derived invariants.
type Config struct {
	// SetupTime is the fixed per-wave overhead (cart staging, labels)
	SetupTime time.Duration

	// PerItemTime is the pick time per item unit
	PerItemTime time.Duration

	// PerZoneTime is the travel overhead per zone visited
	PerZoneTime time.Duration
}

// DefaultConfig returns the standard time model coefficients.
func DefaultConfig() Config {
	return Config{
		SetupTime:   5 * time.Minute,
		PerItemTime: 20 * time.Second,
		PerZoneTime: 90 * time.Second,
	}
}

// Planner groups pending orders into picking waves.
// It is stateless and safe for concurrent use.
type Planner struct {
	cfg Config
}

// NewPlanner creates a planner with the given time coefficients.
func NewPlanner(cfg Config) *Planner {
	def := DefaultConfig()
	if cfg.SetupTime <= 0 {
		cfg.SetupTime = def.SetupTime
	}
	if cfg.PerItemTime <= 0 {
		cfg.PerItemTime = def.PerItemTime
	}
	if cfg.PerZoneTime <= 0 {
		cfg.PerZoneTime = def.PerZoneTime
	}
	return &Planner{cfg: cfg}
}

// PlanWaves produces a complete wave plan for the pending order queue.
// Every valid order lands in exactly one wave; malformed orders are
// reported and skipped. Waves never mix priority tiers and respect both
// batch limits, with one exception: an order whose item count alone
// exceeds maxItemsPerBatch cannot be split and is placed alone in its
// own oversized wave rather than dropped.
func (p *Planner) PlanWaves(
	ctx context.Context,
	orders []Order,
	maxOrdersPerBatch int,
	maxItemsPerBatch int,
) ([]Wave, []apperror.RecordError, error) {
	if maxOrdersPerBatch <= 0 {
		return nil, nil, apperror.NewConstraintViolation("max orders per batch must be positive").
			WithDetail("max_orders_per_batch", maxOrdersPerBatch)
	}
	if maxItemsPerBatch <= 0 {
		return nil, nil, apperror.NewConstraintViolation("max items per batch must be positive").
			WithDetail("max_items_per_batch", maxItemsPerBatch)
	}
	if len(orders) == 0 {
		return []Wave{}, nil, nil
	}

	valid := make([]Order, 0, len(orders))
	var recordErrs []apperror.RecordError
	for i, o := range orders {
		if err := o.Validate(ctx); err != nil {
			recordErrs = append(recordErrs, apperror.RecordError{Index: i, ID: o.ID, Err: err})
			continue
		}
		valid = append(valid, o)
	}

	var waves []Wave
	for _, tier := range tierOrder {
		var tierOrders []Order
		for _, o := range valid {
			if o.Priority == tier {
				tierOrders = append(tierOrders, o)
			}
		}
		waves = append(waves, p.planTier(tier, tierOrders, maxOrdersPerBatch, maxItemsPerBatch)...)
	}

	logger.Info(ctx, "planned picking waves",
		"orders", len(orders),
		"planned", len(valid),
		"skipped", len(recordErrs),
		"waves", len(waves),
	)
	for _, re := range recordErrs {
		logger.Warn(ctx, "skipped malformed order",
			"index", re.Index,
			"order_id", re.ID,
			"error", re.Err,
		)
	}

	return waves, recordErrs, nil
}

// planTier batches one priority tier with greedy accumulation.
func (p *Planner) planTier(tier Priority, orders []Order, maxOrders, maxItems int) []Wave {
	var waves []Wave

	remaining := append([]Order(nil), orders...)
	for len(remaining) > 0 {
		// Seed a new wave with the oldest remaining order. A single
		// order over the item limit cannot be split, so the seed is
		// placed unconditionally and simply stays alone.
		batch := []Order{remaining[0]}
		batchItems := remaining[0].totalItems()
		batchZones := remaining[0].zones()
		remaining = remaining[1:]

		for len(batch) < maxOrders {
			next := pickNext(remaining, batchZones, maxItems-batchItems)
			if next < 0 {
				break
			}
			order := remaining[next]
			batch = append(batch, order)
			batchItems += order.totalItems()
			for z := range order.zones() {
				batchZones[z] = struct{}{}
			}
			remaining = append(remaining[:next], remaining[next+1:]...)
		}

		waves = append(waves, p.buildWave(tier, batch))
	}

	return waves
}

// pickNext selects the next order to add: among orders that still fit
// the remaining item budget, the one whose zone set overlaps the batch
// zones the most. Ties keep input order.
func pickNext(remaining []Order, batchZones map[string]struct{}, itemBudget int) int {
	best := -1
	bestOverlap := -1
	for i, o := range remaining {
		if o.totalItems() > itemBudget {
			continue
		}
		overlap := 0
		for z := range o.zones() {
			if _, ok := batchZones[z]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best = i
			bestOverlap = overlap
		}
	}
	return best
}

// buildWave fixes a batch's order set and derives its route and totals.
func (p *Planner) buildWave(tier Priority, batch []Order) Wave {
	orderIDs := make([]string, len(batch))
	byZone := make(map[string]map[string]int)
	products := make(map[string]struct{})
	totalItems := 0

	for i, o := range batch {
		orderIDs[i] = o.ID
		for _, item := range o.Items {
			if byZone[item.Zone] == nil {
				byZone[item.Zone] = make(map[string]int)
			}
			byZone[item.Zone][item.ProductID] += item.Quantity
			products[item.ProductID] = struct{}{}
			totalItems += item.Quantity
		}
	}

	// Stops follow a fixed zone traversal: lexicographic by zone code,
	// approximating warehouse aisle order.
	zones := make([]string, 0, len(byZone))
	for z := range byZone {
		zones = append(zones, z)
	}
	sort.Strings(zones)

	route := make([]RouteStop, 0, len(zones))
	for _, z := range zones {
		lines := make([]PickLine, 0, len(byZone[z]))
		for productID, qty := range byZone[z] {
			lines = append(lines, PickLine{ProductID: productID, Quantity: qty})
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		route = append(route, RouteStop{Zone: z, Lines: lines})
	}

	return Wave{
		ID:            id.New(),
		Orders:        orderIDs,
		TotalItems:    totalItems,
		TotalProducts: len(products),
		EstimatedTime: p.estimateTime(totalItems, len(zones)),
		Priority:      tier,
		Route:         route,
	}
}

// estimateTime applies the linear pick-time model.
func (p *Planner) estimateTime(items, zones int) time.Duration {
	return p.cfg.SetupTime +
		time.Duration(items)*p.cfg.PerItemTime +
		time.Duration(zones)*p.cfg.PerZoneTime
}
