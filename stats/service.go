package stats

import (
	"context"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the read surface the analytics pipeline needs.
type Store interface {
	ListEvents(ctx context.Context, employeeID domain.EmployeeID, from, to time.Time) ([]domain.ActivityEvent, error)
	TotalsByEmployee(ctx context.Context, from, to time.Time) (map[domain.EmployeeID]int, error)
	ListActiveEmployees(ctx context.Context) ([]domain.Employee, error)
	GetPlan(ctx context.Context, employeeID domain.EmployeeID, year int, month time.Month) (*domain.MonthlyPlan, error)
}

type Options struct {
	Calendar          Calendar
	DefaultPlanTarget float64
	TopBottomN        int
	Timeout           time.Duration
}

type Service struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

func NewService(store Store, opts Options, logger *zap.Logger) *Service {
	if opts.Calendar.Location == nil {
		opts.Calendar.Location = time.UTC
	}
	if opts.TopBottomN <= 0 {
		opts.TopBottomN = 2
	}
	return &Service{store: store, opts: opts, logger: logger}
}

// Today is the current business date.
func (s *Service) Today() time.Time { return s.opts.Calendar.Today(time.Now()) }

// Snapshot aggregates one employee's events around asOf.
func (s *Service) Snapshot(ctx context.Context, employeeID domain.EmployeeID, asOf time.Time) (Snapshot, error) {
	span := s.opts.Calendar.PeriodsAt(asOf).Span()

	readCtx, cancel := utils.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	events, err := s.store.ListEvents(readCtx, employeeID, span.From, span.To)
	if err != nil {
		return Snapshot{}, apperrors.Dependency(err, "list activity events")
	}
	return Aggregate(events, asOf, s.opts.Calendar), nil
}

// PlanTarget returns the registered target for asOf's month, or the default.
func (s *Service) PlanTarget(ctx context.Context, employeeID domain.EmployeeID, asOf time.Time) (float64, error) {
	readCtx, cancel := utils.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	plan, err := s.store.GetPlan(readCtx, employeeID, asOf.Year(), asOf.Month())
	if err != nil {
		return 0, apperrors.Dependency(err, "get monthly plan")
	}
	if plan == nil {
		return s.opts.DefaultPlanTarget, nil
	}
	return plan.Target, nil
}

// RunRate computes the month's run-rate from a snapshot.
func (s *Service) RunRate(ctx context.Context, employeeID domain.EmployeeID, snap Snapshot) (RunRateReport, error) {
	target, err := s.PlanTarget(ctx, employeeID, snap.AsOf)
	if err != nil {
		return RunRateReport{}, err
	}
	return ComputeRunRate(snap.Month.Products, target, snap.AsOf), nil
}

// MonthRanking ranks all active employees by month-to-date totals.
func (s *Service) MonthRanking(ctx context.Context, asOf time.Time) (Ranking, error) {
	rows, err := s.totals(ctx, s.opts.Calendar.PeriodsAt(asOf).Month)
	if err != nil {
		return nil, err
	}
	return RankMonth(rows), nil
}

// DayTopBottom returns the configured top-N and bottom-N for asOf.
func (s *Service) DayTopBottom(ctx context.Context, asOf time.Time) (top, bottom []domain.EmployeeTotal, err error) {
	rows, err := s.totals(ctx, s.opts.Calendar.PeriodsAt(asOf).Day)
	if err != nil {
		return nil, nil, err
	}
	top, bottom = DayTopBottom(rows, s.opts.TopBottomN)
	return top, bottom, nil
}

func (s *Service) totals(ctx context.Context, w Window) ([]domain.EmployeeTotal, error) {
	readCtx, cancel := utils.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	employees, err := s.store.ListActiveEmployees(readCtx)
	if err != nil {
		return nil, apperrors.Dependency(err, "list active employees")
	}
	totals, err := s.store.TotalsByEmployee(readCtx, w.From, w.To)
	if err != nil {
		return nil, apperrors.Dependency(err, "sum attempts by employee")
	}
	return JoinTotals(employees, totals), nil
}

// EmployeeReport bundles everything a stats reply or summary needs.
type EmployeeReport struct {
	EmployeeID domain.EmployeeID      `json:"employee_id"`
	Snapshot   Snapshot               `json:"snapshot"`
	RunRate    RunRateReport          `json:"run_rate"`
	MonthRank  int                    `json:"month_rank,omitempty"`
	Ranked     bool                   `json:"ranked"`
	DayTop     []domain.EmployeeTotal `json:"day_top"`
	DayBottom  []domain.EmployeeTotal `json:"day_bottom"`
}

// Report loads snapshot, run-rate and rankings concurrently.
func (s *Service) Report(ctx context.Context, employeeID domain.EmployeeID, asOf time.Time) (*EmployeeReport, error) {
	asOf = domain.TruncateDate(asOf)
	rep := &EmployeeReport{EmployeeID: employeeID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.Snapshot(gctx, employeeID, asOf)
		if err != nil {
			return err
		}
		rr, err := s.RunRate(gctx, employeeID, snap)
		if err != nil {
			return err
		}
		rep.Snapshot, rep.RunRate = snap, rr
		return nil
	})
	g.Go(func() error {
		ranking, err := s.MonthRanking(gctx, asOf)
		if err != nil {
			return err
		}
		rep.MonthRank, rep.Ranked = ranking.Position(employeeID)
		return nil
	})
	g.Go(func() error {
		top, bottom, err := s.DayTopBottom(gctx, asOf)
		if err != nil {
			return err
		}
		rep.DayTop, rep.DayBottom = top, bottom
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("Built employee stats report",
		zap.Int64("employee_id", int64(employeeID)),
		zap.Time("as_of", asOf),
		zap.Int("month_total", rep.Snapshot.Month.Total))
	return rep, nil
}
