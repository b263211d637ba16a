package agent

import (
	"context"
	"slices"
	"time"

	"sales-assistant/domain"
	"sales-assistant/facts"
	"sales-assistant/pii"
	"sales-assistant/rag"
	"sales-assistant/stats"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type FactResolver interface {
	Resolve(ctx context.Context, q facts.Query) (facts.Result, error)
}

type PassageRetriever interface {
	Retrieve(ctx context.Context, req rag.Request) ([]domain.Passage, rag.Mode, error)
}

type StatsProvider interface {
	Snapshot(ctx context.Context, employeeID domain.EmployeeID, asOf time.Time) (stats.Snapshot, error)
	RunRate(ctx context.Context, employeeID domain.EmployeeID, snap stats.Snapshot) (stats.RunRateReport, error)
}

// HistoryStore reads the employee's conversation and notes.
type HistoryStore interface {
	RecentTurns(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.ConversationTurn, error)
	ListNotes(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.Note, error)
}

type AssemblerOptions struct {
	RecentTurns  int
	Notes        int
	PassageLimit int
	CharBudget   int
}

// StatsSummary is the employee's activity and plan progress as of a date.
type StatsSummary struct {
	Snapshot stats.Snapshot
	RunRate  stats.RunRateReport
}

// Context is the material gathered for one on-topic question. Notes and
// turns are chronological; passages are best first.
type Context struct {
	Fact        *domain.ProductFact
	FactTier    facts.Tier
	Passages    []domain.Passage
	PassageMode rag.Mode
	Stats       *StatsSummary
	Notes       []domain.Note
	Turns       []domain.ConversationTurn
	Trimmed     int
}

type Assembler struct {
	facts    FactResolver
	passages PassageRetriever
	stats    StatsProvider
	history  HistoryStore
	opts     AssemblerOptions
	logger   *zap.Logger
}

func NewAssembler(f FactResolver, p PassageRetriever, s StatsProvider, h HistoryStore, opts AssemblerOptions, logger *zap.Logger) *Assembler {
	if opts.RecentTurns <= 0 {
		opts.RecentTurns = 10
	}
	if opts.Notes <= 0 {
		opts.Notes = 5
	}
	return &Assembler{facts: f, passages: p, stats: s, history: h, opts: opts, logger: logger}
}

// Assemble gathers every context source concurrently and trims the result
// to the character budget. A source that merely finds nothing is not an
// error; a failing dependency is, except passage retrieval, which is
// skipped on failure.
func (a *Assembler) Assemble(ctx context.Context, employeeID domain.EmployeeID, text string, slots Slots, asOf time.Time) (*Context, error) {
	out := &Context{}
	g, gctx := errgroup.WithContext(ctx)

	if slots.Product != "" {
		g.Go(func() error {
			res, err := a.facts.Resolve(gctx, facts.Query{
				Product:   slots.Product,
				Channel:   slots.Channel,
				Currency:  slots.Currency,
				TermDays:  slots.TermDays,
				Amount:    slots.Amount,
				IssueDate: asOf,
			})
			if err != nil {
				return err
			}
			if res.Found {
				out.Fact, out.FactTier = res.Fact, res.Tier
			}
			return nil
		})
	}
	g.Go(func() error {
		passages, mode, err := a.passages.Retrieve(gctx, rag.Request{
			Product:  slots.Product,
			Currency: slots.Currency,
			Text:     retrievalQuery(text, slots),
			Limit:    a.opts.PassageLimit,
		})
		if err != nil {
			// Passages are supporting text only; the rest of the context still stands.
			a.logger.Warn("Passage retrieval failed, continuing without passages",
				zap.Int64("employee_id", int64(employeeID)),
				zap.Error(err))
			return nil
		}
		for i := range passages {
			passages[i].Snippet = pii.Sanitize(passages[i].Snippet)
		}
		out.Passages, out.PassageMode = passages, mode
		return nil
	})
	g.Go(func() error {
		snap, err := a.stats.Snapshot(gctx, employeeID, asOf)
		if err != nil {
			return err
		}
		rr, err := a.stats.RunRate(gctx, employeeID, snap)
		if err != nil {
			return err
		}
		out.Stats = &StatsSummary{Snapshot: snap, RunRate: rr}
		return nil
	})
	g.Go(func() error {
		notes, err := a.history.ListNotes(gctx, employeeID, a.opts.Notes)
		if err != nil {
			return err
		}
		slices.Reverse(notes)
		out.Notes = notes
		return nil
	})
	g.Go(func() error {
		turns, err := a.history.RecentTurns(gctx, employeeID, a.opts.RecentTurns)
		if err != nil {
			return err
		}
		out.Turns = turns
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Trimmed = FitToBudget(out, a.opts.CharBudget)
	a.logger.Debug("Assembled context",
		zap.Int64("employee_id", int64(employeeID)),
		zap.Bool("fact", out.Fact != nil),
		zap.String("fact_tier", out.FactTier.String()),
		zap.Int("passages", len(out.Passages)),
		zap.String("passage_mode", string(out.PassageMode)),
		zap.Int("notes", len(out.Notes)),
		zap.Int("turns", len(out.Turns)),
		zap.Int("trimmed", out.Trimmed))
	return out, nil
}
