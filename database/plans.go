package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sales-assistant/domain"
)

// UpsertPlan stores the monthly target; re-issuing a plan for the same month
// overwrites it.
func (s *PostgresStore) UpsertPlan(ctx context.Context, p domain.MonthlyPlan) (domain.MonthlyPlan, error) {
	query := `
		INSERT INTO monthly_plans (employee_id, year, month, target, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (employee_id, year, month)
		DO UPDATE SET target = EXCLUDED.target, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`
	if err := s.DB.QueryRowContext(ctx, query, int64(p.EmployeeID), p.Year, int(p.Month), p.Target).Scan(&p.UpdatedAt); err != nil {
		return domain.MonthlyPlan{}, writeError(err, "failed to upsert plan")
	}
	return p, nil
}

// GetPlan returns nil when no plan is registered for the month.
func (s *PostgresStore) GetPlan(ctx context.Context, employeeID domain.EmployeeID, year int, month time.Month) (*domain.MonthlyPlan, error) {
	query := `
		SELECT target, updated_at FROM monthly_plans
		WHERE employee_id = $1 AND year = $2 AND month = $3
	`
	p := domain.MonthlyPlan{EmployeeID: employeeID, Year: year, Month: month}
	err := s.DB.QueryRowContext(ctx, query, int64(employeeID), year, int(month)).Scan(&p.Target, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &p, nil
}
