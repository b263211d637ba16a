package facts

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

var (
	t0 = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(24 * time.Hour)
)

func depositFact(id int64, channel domain.Channel, currency domain.Currency, term *int, rate float64, created time.Time) domain.ProductFact {
	return domain.ProductFact{
		ID:           id,
		Product:      domain.ProductDeposit,
		Channel:      channel,
		Currency:     currency,
		FactKey:      "rate_percent",
		TermDays:     term,
		NumericValue: ptr(rate),
		CreatedAt:    created,
	}
}

func TestResolveTiers(t *testing.T) {
	issue := domain.NewDate(2025, 3, 1)
	exact := depositFact(1, domain.ChannelOnline, domain.CurrencyRUB, ptr(181), 18.5, t0)
	productOnly := depositFact(2, "", domain.CurrencyUSD, nil, 3.0, t1)
	currencyTerm := depositFact(3, "", domain.CurrencyRUB, ptr(181), 17.0, t1)
	termOnly := depositFact(4, domain.ChannelOffice, domain.CurrencyEUR, ptr(91), 2.0, t1)
	currencyNoTerm := depositFact(5, domain.ChannelOffice, domain.CurrencyRUB, nil, 12.0, t1)

	tests := []struct {
		name     string
		facts    []domain.ProductFact
		query    Query
		wantID   int64
		wantTier Tier
	}{
		{
			name:     "exact_beats_later_product_only",
			facts:    []domain.ProductFact{exact, productOnly},
			query:    Query{Product: domain.ProductDeposit, Channel: domain.ChannelOnline, Currency: domain.CurrencyRUB, TermDays: ptr(181), IssueDate: issue},
			wantID:   1,
			wantTier: TierExact,
		},
		{
			name:     "exact_beats_later_currency_term",
			facts:    []domain.ProductFact{currencyTerm, exact},
			query:    Query{Product: domain.ProductDeposit, Channel: domain.ChannelOnline, Currency: domain.CurrencyRUB, TermDays: ptr(181), IssueDate: issue},
			wantID:   1,
			wantTier: TierExact,
		},
		{
			name:     "currency_term_without_channel",
			facts:    []domain.ProductFact{currencyTerm, productOnly},
			query:    Query{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, TermDays: ptr(181), IssueDate: issue},
			wantID:   3,
			wantTier: TierCurrencyTerm,
		},
		{
			name:     "term_only",
			facts:    []domain.ProductFact{termOnly, productOnly},
			query:    Query{Product: domain.ProductDeposit, TermDays: ptr(91), IssueDate: issue},
			wantID:   4,
			wantTier: TierTerm,
		},
		{
			name:     "currency_no_term",
			facts:    []domain.ProductFact{currencyNoTerm, productOnly},
			query:    Query{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, IssueDate: issue},
			wantID:   5,
			wantTier: TierCurrencyNoTerm,
		},
		{
			name:     "product_fallback",
			facts:    []domain.ProductFact{productOnly},
			query:    Query{Product: domain.ProductDeposit, IssueDate: issue},
			wantID:   2,
			wantTier: TierProduct,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.facts, tt.query)
			require.True(t, res.Found)
			assert.Equal(t, tt.wantID, res.Fact.ID)
			assert.Equal(t, tt.wantTier, res.Tier)
		})
	}
}

func TestResolveAmountRange(t *testing.T) {
	low := depositFact(1, "", domain.CurrencyRUB, ptr(181), 15, t0)
	low.Amount = domain.AmountRange{Min: ptr(0.0), Max: ptr(1_000_000.0)}
	high := depositFact(2, "", domain.CurrencyRUB, ptr(181), 17, t0)
	high.Amount = domain.AmountRange{Min: ptr(1_000_000.0), Max: ptr(10_000_000.0), MaxInclusive: true}
	facts := []domain.ProductFact{low, high}

	q := Query{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, TermDays: ptr(181)}

	q.Amount = ptr(1_000_000.0)
	res := Resolve(facts, q)
	require.True(t, res.Found)
	assert.Equal(t, int64(2), res.Fact.ID, "exclusive max of the lower band")

	q.Amount = ptr(10_000_000.0)
	res = Resolve(facts, q)
	require.True(t, res.Found)
	assert.Equal(t, int64(2), res.Fact.ID, "inclusive max of the upper band")

	q.Amount = ptr(20_000_000.0)
	assert.Equal(t, Miss, Resolve(facts, q))
}

func TestResolvePrefersValidThenNewest(t *testing.T) {
	issue := domain.NewDate(2025, 3, 1)
	expiredTo := domain.NewDate(2025, 2, 1)
	expired := depositFact(1, "", domain.CurrencyRUB, ptr(91), 14, t1.Add(time.Hour))
	expired.Validity = domain.ValidityWindow{To: &expiredTo}
	older := depositFact(2, "", domain.CurrencyRUB, ptr(91), 15, t0)
	newer := depositFact(3, "", domain.CurrencyRUB, ptr(91), 16, t1)

	res := Resolve([]domain.ProductFact{expired, older, newer}, Query{
		Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, TermDays: ptr(91), IssueDate: issue,
	})
	require.True(t, res.Found)
	assert.Equal(t, int64(3), res.Fact.ID)
}

func TestResolveDeterministic(t *testing.T) {
	issue := domain.NewDate(2025, 3, 1)
	a := depositFact(7, "", domain.CurrencyRUB, ptr(91), 15, t0)
	b := depositFact(3, "", domain.CurrencyRUB, ptr(91), 16, t0)
	c := depositFact(5, "", domain.CurrencyRUB, ptr(91), 17, t0)
	q := Query{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB, TermDays: ptr(91), IssueDate: issue}

	orders := [][]domain.ProductFact{{a, b, c}, {c, b, a}, {b, c, a}}
	for i := 0; i < 5; i++ {
		for _, facts := range orders {
			res := Resolve(facts, q)
			require.True(t, res.Found)
			assert.Equal(t, int64(3), res.Fact.ID, "equal creation times fall back to the lowest id")
		}
	}
}

func TestResolveMissAndFactKey(t *testing.T) {
	assert.Equal(t, Miss, Resolve(nil, Query{Product: domain.ProductKN}))

	f := depositFact(1, "", domain.CurrencyRUB, nil, 10, t0)
	res := Resolve([]domain.ProductFact{f}, Query{Product: domain.ProductDeposit, FactKey: "min_amount"})
	assert.False(t, res.Found)
	assert.Nil(t, res.Fact)
}

type fakeStore struct {
	facts []domain.ProductFact
	calls int
	err   error
}

func (f *fakeStore) ListFacts(ctx context.Context, product domain.ProductCode) ([]domain.ProductFact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ProductFact
	for _, fact := range f.facts {
		if fact.Product == product {
			out = append(out, fact)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertFact(ctx context.Context, fact domain.ProductFact) (int64, error) {
	fact.ID = int64(len(f.facts) + 1)
	f.facts = append(f.facts, fact)
	return fact.ID, nil
}

func TestServiceCachesUntilWrite(t *testing.T) {
	store := &fakeStore{facts: []domain.ProductFact{depositFact(1, "", domain.CurrencyRUB, nil, 10, t0)}}
	svc, err := NewService(store, 8, time.Second, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	q := Query{Product: domain.ProductDeposit, Currency: domain.CurrencyRUB}
	_, err = svc.Resolve(ctx, q)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)

	_, err = svc.AddFact(ctx, depositFact(0, "", domain.CurrencyRUB, nil, 11, t1))
	require.NoError(t, err)
	res, err := svc.Resolve(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 11.0, *res.Fact.NumericValue)
}

func TestServiceAddFactCanonicalisesProduct(t *testing.T) {
	store := &fakeStore{}
	svc, err := NewService(store, 8, time.Second, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	fact := depositFact(0, "", domain.CurrencyRUB, nil, 9.5, t0)
	fact.Product = "кн"
	_, err = svc.AddFact(ctx, fact)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductKN, store.facts[0].Product)

	res, err := svc.Resolve(ctx, Query{Product: domain.ProductKN})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 9.5, *res.Fact.NumericValue)

	fact.Product = "XX"
	_, err = svc.AddFact(ctx, fact)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestServiceErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc, err := NewService(store, 8, time.Second, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), Query{Product: domain.ProductKN})
	assert.True(t, apperrors.IsServiceUnavailable(err))

	_, err = svc.Resolve(context.Background(), Query{Product: "XX"})
	assert.True(t, apperrors.IsInvalidInput(err))
}
