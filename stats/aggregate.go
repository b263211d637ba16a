// Package stats turns raw activity events into period aggregates, plan
// run-rate projections and peer rankings. Everything except Service is a pure
// function over in-memory rows.
package stats

import (
	"time"

	"sales-assistant/domain"
)

// ProductCounts holds a count for every product in the vocabulary.
type ProductCounts map[domain.ProductCode]int

// NewProductCounts returns a zero-filled map.
func NewProductCounts() ProductCounts {
	pc := make(ProductCounts, len(domain.Products))
	for _, p := range domain.Products {
		pc[p] = 0
	}
	return pc
}

// Total sums all products.
func (pc ProductCounts) Total() int {
	total := 0
	for _, c := range pc {
		total += c
	}
	return total
}

// PeriodTotals is one period's product breakdown.
type PeriodTotals struct {
	Window   Window        `json:"window"`
	Products ProductCounts `json:"products"`
	Total    int           `json:"total"`
}

// Snapshot holds current and previous day/week/month aggregates.
type Snapshot struct {
	AsOf      time.Time    `json:"as_of"`
	Day       PeriodTotals `json:"day"`
	Week      PeriodTotals `json:"week"`
	Month     PeriodTotals `json:"month"`
	PrevDay   PeriodTotals `json:"prev_day"`
	PrevWeek  PeriodTotals `json:"prev_week"`
	PrevMonth PeriodTotals `json:"prev_month"`
}

// DayDelta, WeekDelta and MonthDelta compare against the preceding period.
func (s Snapshot) DayDelta() int   { return s.Day.Total - s.PrevDay.Total }
func (s Snapshot) WeekDelta() int  { return s.Week.Total - s.PrevWeek.Total }
func (s Snapshot) MonthDelta() int { return s.Month.Total - s.PrevMonth.Total }

// Aggregate buckets events into the periods around asOf. Events dated after
// asOf or outside the vocabulary are ignored; events with equal keys add up.
func Aggregate(events []domain.ActivityEvent, asOf time.Time, cal Calendar) Snapshot {
	periods := cal.PeriodsAt(asOf)
	buckets := []*PeriodTotals{
		{Window: periods.Day}, {Window: periods.Week}, {Window: periods.Month},
		{Window: periods.PrevDay}, {Window: periods.PrevWeek}, {Window: periods.PrevMonth},
	}
	for _, b := range buckets {
		b.Products = NewProductCounts()
	}

	for _, ev := range events {
		if !ev.Product.Valid() || ev.Count <= 0 {
			continue
		}
		d := domain.TruncateDate(ev.Date)
		for _, b := range buckets {
			if b.Window.Contains(d) {
				b.Products[ev.Product] += ev.Count
			}
		}
	}
	for _, b := range buckets {
		b.Total = b.Products.Total()
	}

	return Snapshot{
		AsOf:      periods.Day.To,
		Day:       *buckets[0],
		Week:      *buckets[1],
		Month:     *buckets[2],
		PrevDay:   *buckets[3],
		PrevWeek:  *buckets[4],
		PrevMonth: *buckets[5],
	}
}

// TotalsByEmployee sums events per employee inside w.
func TotalsByEmployee(events []domain.ActivityEvent, w Window) map[domain.EmployeeID]int {
	out := make(map[domain.EmployeeID]int)
	for _, ev := range events {
		if ev.Count <= 0 || !w.Contains(domain.TruncateDate(ev.Date)) {
			continue
		}
		out[ev.EmployeeID] += ev.Count
	}
	return out
}
