package stats

import (
	"time"

	"sales-assistant/domain"
)

// Calendar turns timestamps into business dates and period windows.
type Calendar struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// DefaultCalendar uses UTC and Monday-start weeks.
func DefaultCalendar() Calendar {
	return Calendar{Location: time.UTC, WeekStart: time.Monday}
}

// Window is an inclusive range of business dates.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// Today returns the business date of ts.
func (c Calendar) Today(ts time.Time) time.Time {
	return domain.BusinessDate(ts, c.Location)
}

// WeekStartOf returns the first day of the week containing d.
func (c Calendar) WeekStartOf(d time.Time) time.Time {
	d = domain.TruncateDate(d)
	offset := (int(d.Weekday()) - int(c.WeekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStartOf returns the first day of the month containing d.
func MonthStartOf(d time.Time) time.Time {
	return domain.NewDate(d.Year(), d.Month(), 1)
}

// Periods holds the current periods up to asOf and the full preceding ones.
type Periods struct {
	Day       Window
	Week      Window
	Month     Window
	PrevDay   Window
	PrevWeek  Window
	PrevMonth Window
}

// PeriodsAt computes the period windows as of the business date asOf.
func (c Calendar) PeriodsAt(asOf time.Time) Periods {
	asOf = domain.TruncateDate(asOf)
	weekStart := c.WeekStartOf(asOf)
	monthStart := MonthStartOf(asOf)
	prevDay := asOf.AddDate(0, 0, -1)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	return Periods{
		Day:       Window{From: asOf, To: asOf},
		Week:      Window{From: weekStart, To: asOf},
		Month:     Window{From: monthStart, To: asOf},
		PrevDay:   Window{From: prevDay, To: prevDay},
		PrevWeek:  Window{From: weekStart.AddDate(0, 0, -7), To: weekStart.AddDate(0, 0, -1)},
		PrevMonth: Window{From: prevMonthStart, To: monthStart.AddDate(0, 0, -1)},
	}
}

// Span is the smallest window covering every period.
func (p Periods) Span() Window {
	from := p.PrevMonth.From
	if p.PrevWeek.From.Before(from) {
		from = p.PrevWeek.From
	}
	return Window{From: from, To: p.Day.To}
}
