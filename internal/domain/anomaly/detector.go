package anomaly

import (
	"context"
	"fmt"
	"math"
	"sync"

	"stocksense/internal/core/apperror"
	"stocksense/internal/core/id"
	"stocksense/internal/domain/stats"
	"stocksense/pkg/logger"
)

// DefaultSensitivity is the alert threshold in standard-deviation units.
const DefaultSensitivity = 2.5

// patternMinRun is the minimum length of a same-direction elevated run
// reported as an unusual_pattern alert.
const patternMinRun = 3

// patternFloor is the per-day deviation a run member must reach. Days at
// or above the sensitivity already alert individually and end the run.
const patternFloor = 2.0

// Config holds the tunable parameters of the detector.
type Config struct {
	// Sensitivity is the deviation threshold for single-day alerts
	Sensitivity float64

	// BaselineDays is the trailing window the baseline is computed over
	BaselineDays int

	// MinBaselineDays is how many observed days must precede a scored
	// day; earlier days only seed the baseline
	MinBaselineDays int
}

// DefaultConfig returns the standard detector parameters.
func DefaultConfig() Config {
	return Config{
		Sensitivity:     DefaultSensitivity,
		BaselineDays:    30,
		MinBaselineDays: 7,
	}
}

// Detector flags days whose demand deviates from the rolling baseline.
// It is stateless and safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given parameters.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = def.Sensitivity
	}
	if cfg.BaselineDays <= 0 {
		cfg.BaselineDays = def.BaselineDays
	}
	if cfg.MinBaselineDays <= 0 {
		cfg.MinBaselineDays = def.MinBaselineDays
	}
	return &Detector{cfg: cfg}
}

// Detect scans a product's sales history and returns alerts for days
// crossing the sensitivity threshold. sensitivity overrides the
// configured threshold when positive; pass 0 to use the default.
// Calendar gaps in the history are treated as zero-sales days.
func (d *Detector) Detect(
	ctx context.Context,
	productID, productName string,
	history []stats.Point,
	sensitivity float64,
) ([]Alert, error) {
	if sensitivity < 0 {
		return nil, apperror.NewInvalidInput("sensitivity must not be negative").
			WithDetail("sensitivity", sensitivity)
	}
	if sensitivity == 0 {
		sensitivity = d.cfg.Sensitivity
	}

	product := ProductHistory{ID: productID, Name: productName, History: history}
	if err := product.Validate(ctx); err != nil {
		return nil, err
	}

	series := stats.FillGaps(history)
	quantities := stats.Quantities(series)

	// Whole-series validation up front so the per-day baseline loop
	// cannot fail mid-scan.
	if _, err := stats.Summarize(quantities); err != nil {
		return nil, fmt.Errorf("validate sales history: %w", err)
	}

	var alerts []Alert

	// signedDevs keeps the per-day signed deviation for pattern scanning;
	// NaN marks unscored seed days.
	signedDevs := make([]float64, len(series))
	for i := range signedDevs {
		signedDevs[i] = math.NaN()
	}

	for i := d.cfg.MinBaselineDays; i < len(series); i++ {
		start := i - d.cfg.BaselineDays
		if start < 0 {
			start = 0
		}
		baseline, err := stats.Summarize(quantities[start:i])
		if err != nil {
			return nil, fmt.Errorf("baseline for day %d: %w", i, err)
		}

		actual := quantities[i]
		deviation := dayDeviation(actual, baseline)
		signedDevs[i] = deviation
		if float64(actual) < baseline.Mean {
			signedDevs[i] = -deviation
		}

		forcedZero := actual == 0 && baseline.Mean > 0
		if deviation < sensitivity && !forcedZero {
			continue
		}

		kind := classify(actual, baseline.Mean)
		alerts = append(alerts, newAlert(product, series[i], kind, baseline.Mean, deviation))
	}

	alerts = append(alerts, d.patternAlerts(product, series, signedDevs, sensitivity)...)

	return alerts, nil
}

// DetectBulk runs Detect per product in parallel. Alert groups keep the
// input product order; a malformed record is reported and skipped.
func (d *Detector) DetectBulk(
	ctx context.Context,
	products []ProductHistory,
	sensitivity float64,
) ([]Alert, []apperror.RecordError, error) {
	if sensitivity < 0 {
		return nil, nil, apperror.NewInvalidInput("sensitivity must not be negative").
			WithDetail("sensitivity", sensitivity)
	}
	if len(products) == 0 {
		return []Alert{}, nil, nil
	}

	type slot struct {
		alerts []Alert
		err    error
	}
	slots := make([]slot, len(products))

	var wg sync.WaitGroup
	for i := range products {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := products[i]
			alerts, err := d.Detect(ctx, p.ID, p.Name, p.History, sensitivity)
			slots[i] = slot{alerts: alerts, err: err}
		}(i)
	}
	wg.Wait()

	var all []Alert
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
		all = append(all, s.alerts...)
	}

	logger.Info(ctx, "detected demand anomalies",
		"products", len(products),
		"alerts", len(all),
		"skipped", len(recordErrs),
	)
	for _, re := range recordErrs {
		logger.Warn(ctx, "skipped malformed product history",
			"index", re.Index,
			"product_id", re.ID,
			"error", re.Err,
		)
	}

	return all, recordErrs, nil
}

// patternAlerts reports runs of patternMinRun or more consecutive days
// deviating in the same direction at ≥ patternFloor sigma while staying
// under the single-day threshold. One alert per run, dated at its end.
func (d *Detector) patternAlerts(
	product ProductHistory,
	series []stats.Point,
	signedDevs []float64,
	sensitivity float64,
) []Alert {
	var alerts []Alert

	runStart := -1
	runSign := 0.0
	flush := func(end int) {
		if runStart >= 0 && end-runStart >= patternMinRun {
			peak := 0.0
			for j := runStart; j < end; j++ {
				if math.Abs(signedDevs[j]) > peak {
					peak = math.Abs(signedDevs[j])
				}
			}
			alert := newAlert(product, series[end-1], KindUnusualPattern, math.NaN(), peak)
			alert.ExpectedValue = 0
			alert.Message = fmt.Sprintf(
				"%d consecutive days of %s demand (peak %.1f sigma)",
				end-runStart, direction(runSign), peak,
			)
			alerts = append(alerts, alert)
		}
		runStart = -1
		runSign = 0
	}

	for i, dev := range signedDevs {
		abs := math.Abs(dev)
		inRun := !math.IsNaN(dev) && abs >= patternFloor && abs < sensitivity
		switch {
		case !inRun:
			flush(i)
		case runStart < 0 || sign(dev) != runSign:
			flush(i)
			runStart = i
			runSign = sign(dev)
		}
	}
	flush(len(signedDevs))

	return alerts
}

// dayDeviation computes the sigma-distance of a day from its baseline.
// Against a zero-variance baseline any non-matching value is infinitely
// significant; a zero-sales day stays at deviation 0 and is handled by
// the forced zero_sales rule.
func dayDeviation(actual int, baseline stats.Summary) float64 {
	if baseline.StdDev > 0 {
		return math.Abs(float64(actual)-baseline.Mean) / baseline.StdDev
	}
	if actual == 0 || float64(actual) == baseline.Mean {
		return 0
	}
	return math.Inf(1)
}

func classify(actual int, mean float64) Kind {
	switch {
	case actual == 0 && mean > 0:
		return KindZeroSales
	case float64(actual) > mean:
		return KindSpike
	default:
		return KindDrop
	}
}

// severityFor maps deviation magnitude to severity bands.
func severityFor(deviation float64) Severity {
	switch {
	case deviation > 4:
		return SeverityCritical
	case deviation >= 3:
		return SeverityHigh
	case deviation >= 2.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func newAlert(product ProductHistory, day stats.Point, kind Kind, expected, deviation float64) Alert {
	return Alert{
		ID:             id.Derive(product.ID, day.Date.Format("2006-01-02"), string(kind)),
		ProductID:      product.ID,
		ProductName:    product.Name,
		Kind:           kind,
		Severity:       severityFor(deviation),
		Date:           day.Date,
		ExpectedValue:  expected,
		ActualValue:    day.Quantity,
		Deviation:      deviation,
		Message:        buildMessage(kind, day.Quantity, expected, deviation),
		PossibleCauses: PossibleCauses(kind),
	}
}

func buildMessage(kind Kind, actual int, expected, deviation float64) string {
	devText := fmt.Sprintf("%.1f sigma", deviation)
	if math.IsInf(deviation, 1) {
		devText = "zero-variance baseline"
	}

	switch kind {
	case KindZeroSales:
		return fmt.Sprintf("no sales recorded, expected ~%.1f/day", expected)
	case KindSpike:
		return fmt.Sprintf("sales spike: %d sold vs ~%.1f expected (%s)", actual, expected, devText)
	case KindDrop:
		return fmt.Sprintf("sales drop: %d sold vs ~%.1f expected (%s)", actual, expected, devText)
	default:
		return fmt.Sprintf("unusual sales pattern around %d/day (%s)", actual, devText)
	}
}

func direction(s float64) string {
	if s < 0 {
		return "depressed"
	}
	return "elevated"
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
