// Package anomaly provides demand anomaly detection over daily sales
// series: it flags days whose demand deviates significantly from the
// trailing rolling baseline.
package anomaly

import (
	"context"
	"time"

	"stocksense/internal/core/apperror"
	"stocksense/internal/core/id"
	"stocksense/internal/domain/stats"
)

// Kind classifies what an anomalous day looks like.
type Kind string

const (
	// KindSpike - demand well above the baseline
	KindSpike Kind = "spike"
	// KindDrop - demand well below the baseline
	KindDrop Kind = "drop"
	// KindZeroSales - no sales on a day where the baseline expects some;
	// always emitted, a stockout day is inherently actionable
	KindZeroSales Kind = "zero_sales"
	// KindUnusualPattern - a sustained run of elevated or depressed days
	// that individually stay below the alert threshold
	KindUnusualPattern Kind = "unusual_pattern"
)

// Severity grades an alert by its deviation magnitude.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is one anomalous (product, day) observation. Alerts are
// stateless facts: the ID is derived from product, date and kind, so a
// rerun over the same snapshot reproduces the same IDs.
type Alert struct {
	ID          id.ID     `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Kind        Kind      `json:"type"`
	Severity    Severity  `json:"severity"`
	Date        time.Time `json:"date"`

	// ExpectedValue is the trailing baseline mean for the day
	ExpectedValue float64 `json:"expectedValue"`
	ActualValue   int     `json:"actualValue"`

	// Deviation is in standard-deviation units; +Inf against a
	// zero-variance baseline
	Deviation float64 `json:"-"`

	Message        string   `json:"message"`
	PossibleCauses []string `json:"possibleCauses"`
}

// ProductHistory is the per-product input for bulk detection.
type ProductHistory struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	History []stats.Point `json:"salesHistory"`
}

// Validate implements input validation for a single product record.
func (p *ProductHistory) Validate(ctx context.Context) error {
	if p.ID == "" {
		return apperror.NewInvalidInput("product id is required")
	}
	if len(p.History) == 0 {
		return apperror.NewInvalidInput("sales history must contain at least one day")
	}
	return nil
}

// possibleCauses is advisory text keyed by kind, not derived from real
// causal data.
var possibleCauses = map[Kind][]string{
	KindSpike: {
		"marketing campaign or promotion",
		"competitor stockout",
		"seasonal demand peak",
	},
	KindDrop: {
		"stockout or low shelf availability",
		"competitor promotion",
		"seasonal dip",
	},
	KindZeroSales: {
		"listing hidden or delisted",
		"out of stock",
		"sales channel sync failure",
	},
	KindUnusualPattern: {
		"gradual demand shift",
		"pricing change",
		"data quality issue",
	},
}

// PossibleCauses returns the advisory cause list for a kind.
func PossibleCauses(kind Kind) []string {
	return possibleCauses[kind]
}
