package report

import (
	"fmt"
	"strconv"
	"strings"

	"sales-assistant/domain"
	"sales-assistant/stats"
)

const noValue = "—"

// Render formats an employee's summary as markdown: rank, period totals,
// plan progress when a plan exists, then today's leaders and laggards.
func Render(name string, rep *stats.EmployeeReport, n int) string {
	var b strings.Builder
	rank := noValue
	if rep.Ranked {
		rank = strconv.Itoa(rep.MonthRank)
	}
	fmt.Fprintf(&b, "Вы: %s — место в рейтинге за месяц: %s\n", name, rank)
	fmt.Fprintf(&b, "День: %d\n", rep.Snapshot.Day.Total)
	fmt.Fprintf(&b, "Неделя: %d\n", rep.Snapshot.Week.Total)
	fmt.Fprintf(&b, "Месяц: %d\n", rep.Snapshot.Month.Total)

	if agg := rep.RunRate.Aggregate; agg.Completion.Valid {
		fmt.Fprintf(&b, "План: %s, выполнение: %s, прогноз: %.0f\n",
			strconv.FormatFloat(rep.RunRate.Target, 'f', -1, 64),
			percent(agg.Completion),
			agg.Projected)
	}

	writeList(&b, fmt.Sprintf("Топ-%d сегодня", n), rep.DayTop)
	writeList(&b, fmt.Sprintf("Худшие-%d сегодня", n), rep.DayBottom)
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, title string, rows []domain.EmployeeTotal) {
	if len(rows) == 0 {
		fmt.Fprintf(b, "%s: %s\n", title, noValue)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, row := range rows {
		fmt.Fprintf(b, "- %s: %d\n", row.Name, row.Total)
	}
}

// DailyLine is the one-line push variant of the summary.
func DailyLine(name string, snap stats.Snapshot) string {
	return fmt.Sprintf("%s: сегодня %d, неделя %d, месяц %d",
		name, snap.Day.Total, snap.Week.Total, snap.Month.Total)
}

func percent(r stats.Ratio) string {
	return strconv.FormatFloat(r.Value*100, 'f', 1, 64) + "%"
}
