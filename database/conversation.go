package database

import (
	"context"
	"fmt"
	"slices"
	"time"

	"sales-assistant/domain"

	"github.com/google/uuid"
)

// InsertTurns appends conversation turns atomically, so a question is never
// stored without its answer.
func (s *PostgresStore) InsertTurns(ctx context.Context, turns []domain.ConversationTurn) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO conversation_turns (id, employee_id, role, content, off_topic, auto_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, t := range turns {
		id := t.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		created := t.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, query, id, int64(t.EmployeeID), string(t.Role), t.Content,
			t.OffTopic, t.AutoGenerated, created); err != nil {
			return writeError(err, "failed to insert conversation turn")
		}
	}
	return tx.Commit()
}

// RecentTurns returns up to limit of the newest turns in chronological order.
func (s *PostgresStore) RecentTurns(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.ConversationTurn, error) {
	query := `
		SELECT id, employee_id, role, content, off_topic, auto_generated, created_at
		FROM conversation_turns
		WHERE employee_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.DB.QueryContext(ctx, query, int64(employeeID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation turns: %w", err)
	}
	defer rows.Close()

	var out []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var role string
		if err := rows.Scan(&t.ID, &t.EmployeeID, &role, &t.Content, &t.OffTopic, &t.AutoGenerated, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		t.Role = domain.Role(role)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}
