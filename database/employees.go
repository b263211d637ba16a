package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"

	"github.com/lib/pq"
)

// UpsertEmployee registers an employee or renames and re-activates an
// existing one.
func (s *PostgresStore) UpsertEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	query := `
		INSERT INTO employees (id, name, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = TRUE
		RETURNING id, name, active, created_at
	`
	var out domain.Employee
	if err := s.DB.QueryRowContext(ctx, query, int64(e.ID), e.Name).
		Scan(&out.ID, &out.Name, &out.Active, &out.CreatedAt); err != nil {
		return domain.Employee{}, fmt.Errorf("failed to upsert employee: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetEmployee(ctx context.Context, id domain.EmployeeID) (domain.Employee, error) {
	query := `SELECT id, name, active, created_at FROM employees WHERE id = $1`
	var out domain.Employee
	err := s.DB.QueryRowContext(ctx, query, int64(id)).Scan(&out.ID, &out.Name, &out.Active, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "employee %d", id)
	}
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return out, nil
}

// SetEmployeeActive soft-deletes or restores an employee.
func (s *PostgresStore) SetEmployeeActive(ctx context.Context, id domain.EmployeeID, active bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE employees SET active = $2 WHERE id = $1`, int64(id), active)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.WrapErrorf(apperrors.ErrNotFound, "employee %d", id)
	}
	return nil
}

func (s *PostgresStore) ListActiveEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.queryEmployees(ctx, `SELECT id, name, active, created_at FROM employees WHERE active ORDER BY id`)
}

// ListEmployeesByIDs returns the active employees among ids.
func (s *PostgresStore) ListEmployeesByIDs(ctx context.Context, ids []domain.EmployeeID) ([]domain.Employee, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	return s.queryEmployees(ctx,
		`SELECT id, name, active, created_at FROM employees WHERE active AND id = ANY($1) ORDER BY id`,
		pq.Array(raw))
}

func (s *PostgresStore) queryEmployees(ctx context.Context, query string, args ...any) ([]domain.Employee, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
