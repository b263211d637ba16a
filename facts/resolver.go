// Package facts picks the single most specific product fact for a query.
package facts

import (
	"sort"
	"time"

	"sales-assistant/domain"
)

// Tier is the specificity level a fact matched at. Lower is more specific.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierCurrencyTerm
	TierTerm
	TierCurrencyNoTerm
	TierProduct
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "channel+currency+term"
	case TierCurrencyTerm:
		return "currency+term"
	case TierTerm:
		return "term"
	case TierCurrencyNoTerm:
		return "currency"
	case TierProduct:
		return "product"
	default:
		return "none"
	}
}

// Query describes what the caller knows. Zero values mean "not supplied".
type Query struct {
	Product   domain.ProductCode `json:"product_code"`
	FactKey   string             `json:"fact_key,omitempty"`
	Channel   domain.Channel     `json:"channel,omitempty"`
	Currency  domain.Currency    `json:"currency,omitempty"`
	TermDays  *int               `json:"term_days,omitempty"`
	Amount    *float64           `json:"amount,omitempty"`
	IssueDate time.Time          `json:"issue_date"`
}

// Result is either a match with its tier or an explicit miss.
type Result struct {
	Fact  *domain.ProductFact `json:"fact,omitempty"`
	Tier  Tier                `json:"tier"`
	Found bool                `json:"found"`
}

// Miss is the empty resolution result.
var Miss = Result{Tier: TierNone}

type tierMatcher struct {
	tier  Tier
	match func(q Query, f domain.ProductFact) bool
}

func termEqual(q Query, f domain.ProductFact) bool {
	return q.TermDays != nil && f.TermDays != nil && *q.TermDays == *f.TermDays
}

var tiers = []tierMatcher{
	{TierExact, func(q Query, f domain.ProductFact) bool {
		return q.Channel != "" && q.Currency != "" &&
			f.Channel == q.Channel && f.Currency == q.Currency && termEqual(q, f)
	}},
	{TierCurrencyTerm, func(q Query, f domain.ProductFact) bool {
		return q.Currency != "" && f.Channel == "" && f.Currency == q.Currency && termEqual(q, f)
	}},
	{TierTerm, func(q Query, f domain.ProductFact) bool {
		return termEqual(q, f)
	}},
	{TierCurrencyNoTerm, func(q Query, f domain.ProductFact) bool {
		return q.Currency != "" && f.TermDays == nil && f.Currency == q.Currency
	}},
	{TierProduct, func(q Query, f domain.ProductFact) bool {
		return true
	}},
}

// Resolve walks the tiers from most to least specific and returns the first
// tier's best fact. Facts whose amount range excludes the supplied amount are
// ineligible at every tier. Within a tier, facts valid on the issue date win,
// then the most recently created, then the lowest id.
func Resolve(facts []domain.ProductFact, q Query) Result {
	eligible := make([]domain.ProductFact, 0, len(facts))
	for _, f := range facts {
		if f.Product != q.Product {
			continue
		}
		if q.FactKey != "" && f.FactKey != q.FactKey {
			continue
		}
		if q.Amount != nil && f.Amount.Declared() && !f.Amount.Contains(*q.Amount) {
			continue
		}
		eligible = append(eligible, f)
	}
	if len(eligible) == 0 {
		return Miss
	}

	issue := domain.TruncateDate(q.IssueDate)
	for _, tm := range tiers {
		var bucket []domain.ProductFact
		for _, f := range eligible {
			if tm.match(q, f) {
				bucket = append(bucket, f)
			}
		}
		if len(bucket) == 0 {
			continue
		}
		best := pickBest(bucket, issue)
		return Result{Fact: &best, Tier: tm.tier, Found: true}
	}
	return Miss
}

func pickBest(bucket []domain.ProductFact, issue time.Time) domain.ProductFact {
	sort.SliceStable(bucket, func(i, j int) bool {
		vi, vj := validOn(bucket[i], issue), validOn(bucket[j], issue)
		if vi != vj {
			return vi
		}
		if !bucket[i].CreatedAt.Equal(bucket[j].CreatedAt) {
			return bucket[i].CreatedAt.After(bucket[j].CreatedAt)
		}
		return bucket[i].ID < bucket[j].ID
	})
	return bucket[0]
}

func validOn(f domain.ProductFact, issue time.Time) bool {
	if f.Validity.OpenEnded() {
		return true
	}
	if issue.IsZero() {
		return false
	}
	return f.Validity.Contains(issue)
}
