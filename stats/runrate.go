package stats

import (
	"encoding/json"
	"time"

	"sales-assistant/domain"
)

// Ratio is a fraction that is undefined when its denominator is zero.
// Undefined ratios marshal to JSON null.
type Ratio struct {
	Value float64
	Valid bool
}

func ratio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Valid: true}
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	if err := json.Unmarshal(b, &r.Value); err != nil {
		return err
	}
	r.Valid = true
	return nil
}

// RunRate describes progress toward the monthly target for one product or
// the aggregate.
type RunRate struct {
	Total         int     `json:"total"`
	Completion    Ratio   `json:"completion"`
	Projected     float64 `json:"projected"`
	RunRateVsPlan Ratio   `json:"run_rate_vs_plan"`
}

// RunRateReport is the per-product and aggregate run-rate for a month.
type RunRateReport struct {
	AsOf            time.Time                      `json:"as_of"`
	Target          float64                        `json:"target"`
	ElapsedDays     int                            `json:"elapsed_days"`
	DaysInMonth     int                            `json:"days_in_month"`
	ElapsedFraction float64                        `json:"elapsed_fraction"`
	Products        map[domain.ProductCode]RunRate `json:"products"`
	Aggregate       RunRate                        `json:"aggregate"`
}

// ComputeRunRate projects month-to-date totals linearly to month end.
// The elapsed fraction never drops below one day.
func ComputeRunRate(month ProductCounts, target float64, asOf time.Time) RunRateReport {
	asOf = domain.TruncateDate(asOf)
	days := domain.DaysIn(asOf.Year(), asOf.Month())
	elapsed := max(asOf.Day(), 1)

	rep := RunRateReport{
		AsOf:            asOf,
		Target:          target,
		ElapsedDays:     elapsed,
		DaysInMonth:     days,
		ElapsedFraction: float64(elapsed) / float64(days),
		Products:        make(map[domain.ProductCode]RunRate, len(domain.Products)),
	}
	for _, p := range domain.Products {
		rep.Products[p] = runRate(month[p], target, elapsed, days)
	}
	rep.Aggregate = runRate(month.Total(), target, elapsed, days)
	return rep
}

func runRate(total int, target float64, elapsed, days int) RunRate {
	// total / (elapsed/days), kept in one division for exact integer results.
	projected := float64(total) * float64(days) / float64(elapsed)
	return RunRate{
		Total:         total,
		Completion:    ratio(float64(total), target),
		Projected:     projected,
		RunRateVsPlan: ratio(projected, target),
	}
}
