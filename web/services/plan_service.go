package services

import (
	"context"
	"time"

	"sales-assistant/audit"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"
	"sales-assistant/web/types"

	"go.uber.org/zap"
)

type PlanStore interface {
	UpsertPlan(ctx context.Context, p domain.MonthlyPlan) (domain.MonthlyPlan, error)
}

type PlanService struct {
	store   PlanStore
	audit   *audit.Recorder
	timeout time.Duration
	logger  *zap.Logger
}

func NewPlanService(store PlanStore, recorder *audit.Recorder, timeout time.Duration, logger *zap.Logger) *PlanService {
	return &PlanService{store: store, audit: recorder, timeout: timeout, logger: logger}
}

// SetPlan stores the monthly target, replacing any earlier one for the
// same month.
func (s *PlanService) SetPlan(ctx context.Context, employeeID domain.EmployeeID, req types.SetPlanRequest) (domain.MonthlyPlan, error) {
	plan := domain.MonthlyPlan{
		EmployeeID: employeeID,
		Year:       req.Year,
		Month:      time.Month(req.Month),
		Target:     req.Target,
	}
	if err := plan.Validate(); err != nil {
		return domain.MonthlyPlan{}, err
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	saved, err := s.store.UpsertPlan(writeCtx, plan)
	if err != nil {
		if apperrors.IsIntegrity(err) {
			return domain.MonthlyPlan{}, err
		}
		return domain.MonthlyPlan{}, apperrors.Dependency(err, "set plan")
	}
	s.audit.Record(ctx, employeeID, audit.ActionSetPlan, map[string]any{
		"year":   plan.Year,
		"month":  int(plan.Month),
		"target": plan.Target,
	})
	return saved, nil
}
