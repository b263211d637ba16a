package database

import (
	"context"
	"fmt"
	"time"

	"sales-assistant/domain"

	"github.com/google/uuid"
)

func (s *PostgresStore) InsertNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO notes (id, employee_id, content, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query, n.ID, int64(n.EmployeeID), n.Content, n.CreatedAt); err != nil {
		return domain.Note{}, writeError(err, "failed to insert note")
	}
	return n, nil
}

// ListNotes returns an employee's notes, newest first.
func (s *PostgresStore) ListNotes(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.Note, error) {
	query := `
		SELECT id, employee_id, content, created_at FROM notes
		WHERE employee_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.DB.QueryContext(ctx, query, int64(employeeID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var out []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.EmployeeID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
