// Package mockdata synthesizes sales history for demos and tests.
// It is deliberately outside the analytics engine: production code never
// generates data, it only consumes snapshots supplied by the caller.
package mockdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"stocksense/internal/domain/stats"
)

// weekendFactor dampens weekend demand in the synthetic series.
const weekendFactor = 0.7

// GenerateSalesHistory produces a daily sales series for a product:
// `days` consecutive points ending yesterday, centered on avgDaily with
// multiplicative noise of +/- noiseFactor and a weekend dip. The series
// is deterministic per product id, so repeated demo runs and tests see
// the same data.
func GenerateSalesHistory(productID string, days int, avgDaily, noiseFactor float64) []stats.Point {
	if days <= 0 {
		return []stats.Point{}
	}

	end := time.Now().AddDate(0, 0, -1)
	return generateFrom(productID, end, days, avgDaily, noiseFactor)
}

func generateFrom(productID string, end time.Time, days int, avgDaily, noiseFactor float64) []stats.Point {
	rng := rand.New(rand.NewSource(seed(productID)))

	points := make([]stats.Point, days)
	for i := 0; i < days; i++ {
		date := midnight(end.AddDate(0, 0, i-days+1))

		expected := avgDaily
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			expected *= weekendFactor
		}

		// noise in [-noiseFactor, +noiseFactor] around the expectation
		noise := (rng.Float64()*2 - 1) * noiseFactor
		quantity := int(math.Round(expected * (1 + noise)))
		if quantity < 0 {
			quantity = 0
		}

		points[i] = stats.Point{Date: date, Quantity: quantity}
	}
	return points
}

func seed(productID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(productID))
	return int64(h.Sum64())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
