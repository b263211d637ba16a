package agent

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"sales-assistant/stats"
	"sales-assistant/web/format"
)

// Size is the character count of everything the context would render,
// conversation turns included.
func (c *Context) Size() int {
	size := 0
	for _, line := range c.lines() {
		size += utf8.RuneCountInString(line)
	}
	for _, t := range c.Turns {
		size += utf8.RuneCountInString(t.Content)
	}
	return size
}

// FitToBudget drops items until the context fits budget characters and
// returns how many were dropped. Order: oldest turns, oldest notes,
// lowest-ranked passages, then the fact, then stats. A non-positive budget
// disables trimming.
func FitToBudget(c *Context, budget int) int {
	if budget <= 0 {
		return 0
	}
	dropped := 0
	for c.Size() > budget {
		switch {
		case len(c.Turns) > 0:
			c.Turns = c.Turns[1:]
		case len(c.Notes) > 0:
			c.Notes = c.Notes[1:]
		case len(c.Passages) > 0:
			c.Passages = c.Passages[:len(c.Passages)-1]
		case c.Fact != nil:
			c.Fact = nil
		case c.Stats != nil:
			c.Stats = nil
		default:
			return dropped
		}
		dropped++
	}
	return dropped
}

// Render formats the non-conversation context as a tagged block, or returns
// "" when nothing was gathered.
func (c *Context) Render() string {
	lines := c.lines()
	if len(lines) == 0 {
		return ""
	}
	return format.Wrap(format.ContextTag, strings.Join(lines, "\n"))
}

func (c *Context) lines() []string {
	var lines []string
	if c.Fact != nil {
		lines = append(lines, renderFact(c))
	}
	for _, p := range c.Passages {
		if p.Section != "" {
			lines = append(lines, fmt.Sprintf("[passage] %s: %s", p.Section, p.Snippet))
		} else {
			lines = append(lines, "[passage] "+p.Snippet)
		}
	}
	if c.Stats != nil {
		lines = append(lines, renderStats(c.Stats))
	}
	for _, n := range c.Notes {
		lines = append(lines, fmt.Sprintf("[note] %s: %s", n.CreatedAt.Format("2006-01-02"), n.Content))
	}
	return lines
}

func renderFact(c *Context) string {
	f := c.Fact
	value := f.TextValue
	if f.NumericValue != nil {
		value = strconv.FormatFloat(*f.NumericValue, 'f', -1, 64)
	}
	var attrs []string
	if f.Channel != "" {
		attrs = append(attrs, "канал: "+string(f.Channel))
	}
	if f.Currency != "" {
		attrs = append(attrs, "валюта: "+string(f.Currency))
	}
	if f.TermDays != nil {
		attrs = append(attrs, fmt.Sprintf("срок: %d дн.", *f.TermDays))
	}
	if f.Source != "" {
		attrs = append(attrs, "источник: "+f.Source)
	}
	line := fmt.Sprintf("[fact] %s %s: %s", f.Product, f.FactKey, value)
	if len(attrs) > 0 {
		line += " (" + strings.Join(attrs, ", ") + ")"
	}
	return line
}

func renderStats(s *StatsSummary) string {
	snap, rr := s.Snapshot, s.RunRate
	line := fmt.Sprintf("[stats] День: %d (вчера %d), Неделя: %d (прошлая %d), Месяц: %d (прошлый %d)",
		snap.Day.Total, snap.PrevDay.Total,
		snap.Week.Total, snap.PrevWeek.Total,
		snap.Month.Total, snap.PrevMonth.Total)
	if !rr.Aggregate.Completion.Valid {
		return line + "; план не задан"
	}
	return line + fmt.Sprintf("; план: %s, выполнение: %s, прогноз на месяц: %.0f, прогноз к плану: %s",
		strconv.FormatFloat(rr.Target, 'f', -1, 64),
		percent(rr.Aggregate.Completion),
		rr.Aggregate.Projected,
		percent(rr.Aggregate.RunRateVsPlan))
}

func percent(r stats.Ratio) string {
	if !r.Valid {
		return "—"
	}
	return strconv.FormatFloat(r.Value*100, 'f', 1, 64) + "%"
}
