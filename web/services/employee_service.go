package services

import (
	"context"
	"strings"
	"time"

	"sales-assistant/audit"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"
	"sales-assistant/web/types"

	"go.uber.org/zap"
)

type EmployeeStore interface {
	UpsertEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error)
	GetEmployee(ctx context.Context, id domain.EmployeeID) (domain.Employee, error)
	SetEmployeeActive(ctx context.Context, id domain.EmployeeID, active bool) error
}

type EmployeeService struct {
	store   EmployeeStore
	audit   *audit.Recorder
	timeout time.Duration
	logger  *zap.Logger
}

func NewEmployeeService(store EmployeeStore, recorder *audit.Recorder, timeout time.Duration, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{store: store, audit: recorder, timeout: timeout, logger: logger}
}

// Register creates an employee, or renames and re-activates an existing one.
func (s *EmployeeService) Register(ctx context.Context, req types.RegisterEmployeeRequest) (domain.Employee, error) {
	if req.ID <= 0 {
		return domain.Employee{}, apperrors.NewValidationError("id", "must be a positive integer")
	}
	name := strings.TrimSpace(req.Name)
	if err := domain.ValidateText("name", name); err != nil {
		return domain.Employee{}, err
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	emp, err := s.store.UpsertEmployee(writeCtx, domain.Employee{ID: domain.EmployeeID(req.ID), Name: name})
	if err != nil {
		return domain.Employee{}, apperrors.Dependency(err, "register employee")
	}
	s.logger.Info("Registered employee", zap.Int64("employee_id", req.ID))
	s.audit.Record(ctx, emp.ID, audit.ActionRegister, map[string]any{"name": name})
	return emp, nil
}

// Deactivate soft-deletes an employee. History is kept.
func (s *EmployeeService) Deactivate(ctx context.Context, id domain.EmployeeID) error {
	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.SetEmployeeActive(writeCtx, id, false); err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.Dependency(err, "deactivate employee")
	}
	s.audit.Record(ctx, id, audit.ActionDeactivate, nil)
	return nil
}

// Active loads an employee that may use the service. Unknown and
// deactivated employees are unauthorized.
func (s *EmployeeService) Active(ctx context.Context, id domain.EmployeeID) (domain.Employee, error) {
	readCtx, cancel := utils.WithTimeout(ctx, s.timeout)
	defer cancel()
	emp, err := s.store.GetEmployee(readCtx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domain.Employee{}, apperrors.WrapErrorf(apperrors.ErrUnauthorized, "employee %d is not registered", id)
		}
		return domain.Employee{}, apperrors.Dependency(err, "load employee")
	}
	if !emp.Active {
		return domain.Employee{}, apperrors.WrapErrorf(apperrors.ErrUnauthorized, "employee %d is deactivated", id)
	}
	return emp, nil
}
