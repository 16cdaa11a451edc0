// Package picking provides the wave-picking batch planner.
// It groups pending orders into bounded-size waves by priority tier and
// warehouse-zone locality, and computes a zone-by-zone pick route per
// wave. The zone-affinity grouping is a local greedy heuristic, not a
// shortest-route guarantee.
package picking

import (
	"context"
	"fmt"
	"time"

	"stocksense/internal/core/apperror"
	"stocksense/internal/core/id"
)

// Priority is the order fulfillment tier. Waves never mix tiers;
// higher tiers are planned, and therefore picked, first.
type Priority string

const (
	PriorityExpress  Priority = "express"
	PriorityStandard Priority = "standard"
	PriorityEconomy  Priority = "economy"
)

// tierOrder is the planning sequence.
var tierOrder = []Priority{PriorityExpress, PriorityStandard, PriorityEconomy}

func (p Priority) valid() bool {
	switch p {
	case PriorityExpress, PriorityStandard, PriorityEconomy:
		return true
	}
	return false
}

// OrderItem is one order line: a product picked from a warehouse zone.
type OrderItem struct {
	ProductID string `json:"productId"`
	Zone      string `json:"zone"`
	Quantity  int    `json:"quantity"`
}

// Order is a pending order queued for picking.
type Order struct {
	ID       string      `json:"orderId"`
	Priority Priority    `json:"priority"`
	Items    []OrderItem `json:"items"`
}

// Validate implements input validation for a single order record.
func (o *Order) Validate(ctx context.Context) error {
	if o.ID == "" {
		return apperror.NewInvalidInput("order id is required")
	}
	if !o.Priority.valid() {
		return apperror.NewInvalidInput(
			fmt.Sprintf("order %s: unknown priority %q", o.ID, o.Priority),
		)
	}
	if len(o.Items) == 0 {
		return apperror.NewInvalidInput(
			fmt.Sprintf("order %s: must contain at least one item", o.ID),
		)
	}
	for i, item := range o.Items {
		if item.ProductID == "" {
			return apperror.NewInvalidInput(
				fmt.Sprintf("order %s: item %d: product id is required", o.ID, i),
			)
		}
		if item.Zone == "" {
			return apperror.NewInvalidInput(
				fmt.Sprintf("order %s: item %d: zone is required", o.ID, i),
			)
		}
		if item.Quantity <= 0 {
			return apperror.NewInvalidInput(
				fmt.Sprintf("order %s: item %d: quantity must be positive", o.ID, i),
			).WithDetail("quantity", item.Quantity)
		}
	}
	return nil
}

// totalItems is the sum of line quantities.
func (o *Order) totalItems() int {
	var total int
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// zones returns the set of zones the order touches.
func (o *Order) zones() map[string]struct{} {
	set := make(map[string]struct{}, len(o.Items))
	for _, item := range o.Items {
		set[item.Zone] = struct{}{}
	}
	return set
}

// PickLine is one product quantity picked at a route stop.
type PickLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// RouteStop is one zone visit in a wave's pick sequence.
type RouteStop struct {
	Zone  string     `json:"zone"`
	Lines []PickLine `json:"products"`
}

// Wave is one planned picking run. The route stop order is the pick
// sequence; each zone the wave touches appears exactly once.
type Wave struct {
	ID     id.ID    `json:"batchId"`
	Orders []string `json:"orders"`

	// TotalItems is the sum of line quantities in the wave
	TotalItems int `json:"totalItems"`

	// TotalProducts is the count of distinct SKUs in the wave
	TotalProducts int `json:"totalProducts"`

	EstimatedTime time.Duration `json:"estimatedTime"`
	Priority      Priority      `json:"priority"`
	Route         []RouteStop   `json:"route"`
}
