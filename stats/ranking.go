package stats

import (
	"sort"

	"sales-assistant/domain"
)

// RankedEmployee is one row of a competition ranking.
type RankedEmployee struct {
	domain.EmployeeTotal
	Rank int `json:"rank"`
}

// Ranking is ordered by total descending, then employee id ascending.
type Ranking []RankedEmployee

// RankMonth applies standard competition ranking: equal totals share a rank
// and the next rank skips accordingly (1, 1, 3).
func RankMonth(totals []domain.EmployeeTotal) Ranking {
	rows := make([]domain.EmployeeTotal, len(totals))
	copy(rows, totals)
	sortDesc(rows)

	out := make(Ranking, len(rows))
	for i, row := range rows {
		rank := i + 1
		if i > 0 && row.Total == rows[i-1].Total {
			rank = out[i-1].Rank
		}
		out[i] = RankedEmployee{EmployeeTotal: row, Rank: rank}
	}
	return out
}

// Position returns the employee's rank, or false when absent.
func (r Ranking) Position(id domain.EmployeeID) (int, bool) {
	for _, row := range r {
		if row.EmployeeID == id {
			return row.Rank, true
		}
	}
	return 0, false
}

// DayTopBottom picks the n best and n worst employees by day total. Bottom
// is ordered worst first. Ties break by employee id ascending in both lists,
// and the lists may overlap when fewer than 2n employees exist.
func DayTopBottom(totals []domain.EmployeeTotal, n int) (top, bottom []domain.EmployeeTotal) {
	if n <= 0 || len(totals) == 0 {
		return nil, nil
	}
	desc := make([]domain.EmployeeTotal, len(totals))
	copy(desc, totals)
	sortDesc(desc)

	asc := make([]domain.EmployeeTotal, len(totals))
	copy(asc, totals)
	sort.SliceStable(asc, func(i, j int) bool {
		if asc[i].Total != asc[j].Total {
			return asc[i].Total < asc[j].Total
		}
		return asc[i].EmployeeID < asc[j].EmployeeID
	})

	k := min(n, len(totals))
	return desc[:k], asc[:k]
}

func sortDesc(rows []domain.EmployeeTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
}

// JoinTotals builds rows for every employee, filling zero for those without
// activity.
func JoinTotals(employees []domain.Employee, totals map[domain.EmployeeID]int) []domain.EmployeeTotal {
	rows := make([]domain.EmployeeTotal, 0, len(employees))
	for _, e := range employees {
		if !e.Active {
			continue
		}
		rows = append(rows, domain.EmployeeTotal{EmployeeID: e.ID, Name: e.Name, Total: totals[e.ID]})
	}
	return rows
}
