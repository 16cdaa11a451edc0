// Package stats provides demand statistics over daily sales series.
// It is the shared leaf of the analytics engine: both the reorder
// calculator and the anomaly detector build on its rolling mean and
// population standard deviation.
package stats

import (
	"fmt"
	"math"
	"time"

	"stocksense/internal/core/apperror"
)

// Point is one day of sales for a product.
// Series are chronologically ordered, one point per calendar day.
type Point struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}

// Summary holds demand statistics over a sales window.
// StdDev is the population standard deviation (divide by N, not N-1):
// the window is treated as the whole population of observed days, and a
// single-point window must collapse to zero variance, not an error.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Summarize computes mean and population standard deviation over daily
// sales quantities. The series must be non-empty and non-negative; a
// single-point or constant series yields StdDev = 0. Consumers must
// treat zero variance as "any deviation is infinitely significant" and
// fall back to absolute-threshold rules instead of dividing by zero.
func Summarize(quantities []int) (Summary, error) {
	if len(quantities) == 0 {
		return Summary{}, apperror.NewInvalidInput("sales history must contain at least one day")
	}

	var sum int
	for i, q := range quantities {
		if q < 0 {
			return Summary{}, apperror.NewInvalidInput(
				fmt.Sprintf("day %d: quantity must not be negative", i),
			).WithDetail("quantity", q)
		}
		sum += q
	}
	mean := float64(sum) / float64(len(quantities))

	var variance float64
	for _, q := range quantities {
		diff := float64(q) - mean
		variance += diff * diff
	}
	variance /= float64(len(quantities))

	return Summary{Mean: mean, StdDev: math.Sqrt(variance)}, nil
}

// SummarizePoints computes demand statistics over a dated series.
func SummarizePoints(points []Point) (Summary, error) {
	return Summarize(Quantities(points))
}

// SummarizeWindow computes statistics over the trailing window of the
// series. A series shorter than the window is summarized whole: a short
// history widens uncertainty but never errors.
func SummarizeWindow(quantities []int, window int) (Summary, error) {
	if window <= 0 {
		return Summary{}, apperror.NewInvalidInput("window must be positive")
	}
	if len(quantities) > window {
		quantities = quantities[len(quantities)-window:]
	}
	return Summarize(quantities)
}

// Quantities extracts the quantity series from dated points.
func Quantities(points []Point) []int {
	qs := make([]int, len(points))
	for i, p := range points {
		qs[i] = p.Quantity
	}
	return qs
}

// FillGaps inserts zero-sales days for calendar gaps in a chronological
// series, so downstream statistics see one point per day. Points keep
// their original dates; inserted days are at midnight in the location of
// the preceding point.
func FillGaps(points []Point) []Point {
	if len(points) < 2 {
		return points
	}

	out := make([]Point, 0, len(points))
	out = append(out, points[0])
	for _, p := range points[1:] {
		prev := midnight(out[len(out)-1].Date)
		for d := prev.AddDate(0, 0, 1); d.Before(midnight(p.Date)); d = d.AddDate(0, 0, 1) {
			out = append(out, Point{Date: d, Quantity: 0})
		}
		out = append(out, p)
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
