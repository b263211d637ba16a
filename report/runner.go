// Package report builds and delivers the periodic per-employee summaries.
package report

import (
	"context"
	"strconv"
	"time"

	"sales-assistant/audit"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/stats"
	"sales-assistant/utils"
	"sales-assistant/web/format"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Generic outcome messages; the underlying errors are only logged.
const (
	errBuild   = "не удалось сформировать сводку"
	errDeliver = "не удалось доставить сводку"
)

type EmployeeSource interface {
	ListActiveEmployees(ctx context.Context) ([]domain.Employee, error)
	ListEmployeesByIDs(ctx context.Context, ids []domain.EmployeeID) ([]domain.Employee, error)
}

type Reporter interface {
	Report(ctx context.Context, employeeID domain.EmployeeID, asOf time.Time) (*stats.EmployeeReport, error)
}

// Summary is one employee's rendered report.
type Summary struct {
	EmployeeID domain.EmployeeID     `json:"employee_id"`
	Name       string                `json:"name"`
	AsOf       time.Time             `json:"as_of"`
	Markdown   string                `json:"markdown"`
	HTML       string                `json:"html"`
	Line       string                `json:"line"`
	Report     *stats.EmployeeReport `json:"report"`
}

// Outcome is the per-employee result of a run.
type Outcome struct {
	EmployeeID domain.EmployeeID `json:"employee_id"`
	Summary    *Summary          `json:"summary,omitempty"`
	Delivered  bool              `json:"delivered"`
	Joined     bool              `json:"joined,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type Options struct {
	Workers        int
	TopBottomN     int
	StorageTimeout time.Duration
	// EmployeeTimeout bounds building and delivering one summary.
	EmployeeTimeout time.Duration
}

type Runner struct {
	employees EmployeeSource
	reports   Reporter
	notifier  Notifier
	audit     *audit.Recorder
	opts      Options
	inflight  singleflight.Group
	logger    *zap.Logger
}

func NewRunner(employees EmployeeSource, reports Reporter, notifier Notifier, recorder *audit.Recorder, opts Options, logger *zap.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.TopBottomN <= 0 {
		opts.TopBottomN = 2
	}
	return &Runner{
		employees: employees,
		reports:   reports,
		notifier:  notifier,
		audit:     recorder,
		opts:      opts,
		logger:    logger,
	}
}

type delivery struct {
	summary   *Summary
	delivered bool
}

// Run builds and delivers summaries as of asOf for the given active
// employees, or for all active employees when ids is empty. Employees are
// processed in parallel; a failure for one employee is reported in its
// Outcome and does not stop the others.
func (r *Runner) Run(ctx context.Context, ids []domain.EmployeeID, asOf time.Time) ([]Outcome, error) {
	asOf = domain.TruncateDate(asOf)
	employees, err := r.targets(ctx, ids)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Starting summary run",
		zap.Time("as_of", asOf),
		zap.Int("employees", len(employees)),
		zap.Int("workers", r.opts.Workers))

	outcomes := make([]Outcome, len(employees))
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, e := range employees {
		g.Go(func() error {
			outcomes[i] = r.runOne(ctx, e, asOf)
			return nil
		})
	}
	_ = g.Wait()

	delivered := 0
	for _, o := range outcomes {
		if o.Delivered {
			delivered++
		}
	}
	r.logger.Info("Summary run completed",
		zap.Int("delivered", delivered),
		zap.Int("failed", len(outcomes)-delivered))
	return outcomes, nil
}

func (r *Runner) targets(ctx context.Context, ids []domain.EmployeeID) ([]domain.Employee, error) {
	readCtx, cancel := utils.WithTimeout(ctx, r.opts.StorageTimeout)
	defer cancel()
	var (
		employees []domain.Employee
		err       error
	)
	if len(ids) == 0 {
		employees, err = r.employees.ListActiveEmployees(readCtx)
	} else {
		employees, err = r.employees.ListEmployeesByIDs(readCtx, ids)
	}
	if err != nil {
		return nil, apperrors.Dependency(err, "list employees for summary")
	}
	return employees, nil
}

// runOne joins an in-flight run for the same employee and date instead of
// starting a second one.
func (r *Runner) runOne(ctx context.Context, e domain.Employee, asOf time.Time) Outcome {
	out := Outcome{EmployeeID: e.ID}
	v, err, shared := r.inflight.Do(inflightKey(e.ID, asOf), func() (any, error) {
		runCtx, cancel := utils.DetachedTimeout(ctx, r.opts.EmployeeTimeout)
		defer cancel()
		return r.deliver(runCtx, e, asOf)
	})
	out.Joined = shared
	if err != nil {
		out.Error = errBuild
		return out
	}
	d := v.(delivery)
	out.Summary, out.Delivered = d.summary, d.delivered
	if !d.delivered {
		out.Error = errDeliver
	}
	return out
}

func inflightKey(id domain.EmployeeID, asOf time.Time) string {
	return strconv.FormatInt(int64(id), 10) + "|" + asOf.Format(time.DateOnly)
}

// Build renders one employee's summary without delivering it.
func (r *Runner) Build(ctx context.Context, e domain.Employee, asOf time.Time) (*Summary, error) {
	asOf = domain.TruncateDate(asOf)
	rep, err := r.reports.Report(ctx, e.ID, asOf)
	if err != nil {
		return nil, err
	}
	md := Render(e.Name, rep, r.opts.TopBottomN)
	return &Summary{
		EmployeeID: e.ID,
		Name:       e.Name,
		AsOf:       asOf,
		Markdown:   md,
		HTML:       format.ConvertToHTML(md),
		Line:       DailyLine(e.Name, rep.Snapshot),
		Report:     rep,
	}, nil
}

func (r *Runner) deliver(ctx context.Context, e domain.Employee, asOf time.Time) (delivery, error) {
	summary, err := r.Build(ctx, e, asOf)
	if err != nil {
		r.logger.Error("Failed to build summary",
			zap.Int64("employee_id", int64(e.ID)),
			zap.Error(err))
		r.audit.Record(ctx, e.ID, audit.ActionError, map[string]any{"where": "summary"})
		return delivery{}, err
	}

	if r.notifier == nil {
		return delivery{summary: summary}, nil
	}
	if err := r.notifier.Notify(ctx, e, summary); err != nil {
		r.logger.Error("Failed to deliver summary",
			zap.Int64("employee_id", int64(e.ID)),
			zap.Error(err))
		r.audit.Record(ctx, e.ID, audit.ActionError, map[string]any{"where": "summary_delivery"})
		return delivery{summary: summary}, nil
	}
	r.audit.Record(ctx, e.ID, audit.ActionSummary, map[string]any{
		"as_of":       asOf.Format(time.DateOnly),
		"month_total": summary.Report.Snapshot.Month.Total,
	})
	return delivery{summary: summary, delivered: true}, nil
}
