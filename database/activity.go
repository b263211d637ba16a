package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sales-assistant/domain"

	"github.com/google/uuid"
)

// InsertAttempts stores a batch of events in one transaction. Rows whose
// (request_id, product_code) was already recorded are skipped; the number of
// newly stored rows is returned.
func (s *PostgresStore) InsertAttempts(ctx context.Context, events []domain.ActivityEvent) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO attempts (id, employee_id, product_code, attempt_count, for_date, meeting_id, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (request_id, product_code) WHERE request_id IS NOT NULL DO NOTHING
	`
	inserted := 0
	for _, ev := range events {
		id := ev.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		var meeting uuid.NullUUID
		if ev.MeetingID != nil {
			meeting = uuid.NullUUID{UUID: *ev.MeetingID, Valid: true}
		}
		res, err := tx.ExecContext(ctx, query, id, int64(ev.EmployeeID), string(ev.Product), ev.Count,
			domain.TruncateDate(ev.Date), meeting, nullString(ev.RequestID), time.Now().UTC())
		if err != nil {
			return 0, writeError(err, "failed to insert attempt")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit attempts: %w", err)
	}
	return inserted, nil
}

// InsertMeeting stores a meeting unless its request id was already seen, in
// which case the stored meeting's id is returned.
func (s *PostgresStore) InsertMeeting(ctx context.Context, m domain.MeetingEvent) (uuid.UUID, error) {
	id := m.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	query := `
		INSERT INTO meetings (id, employee_id, product_code, for_date, request_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_id) WHERE request_id IS NOT NULL DO NOTHING
	`
	res, err := s.DB.ExecContext(ctx, query, id, int64(m.EmployeeID), string(m.Product), domain.TruncateDate(m.Date), nullString(m.RequestID))
	if err != nil {
		return uuid.Nil, writeError(err, "failed to insert meeting")
	}
	if n, _ := res.RowsAffected(); n == 0 && m.RequestID != "" {
		var existing uuid.UUID
		if err := s.DB.QueryRowContext(ctx, `SELECT id FROM meetings WHERE request_id = $1`, m.RequestID).Scan(&existing); err != nil {
			return uuid.Nil, fmt.Errorf("failed to load existing meeting: %w", err)
		}
		return existing, nil
	}
	return id, nil
}

// ListEvents returns an employee's events dated within [from, to].
func (s *PostgresStore) ListEvents(ctx context.Context, employeeID domain.EmployeeID, from, to time.Time) ([]domain.ActivityEvent, error) {
	query := `
		SELECT id, employee_id, product_code, attempt_count, for_date, meeting_id, COALESCE(request_id, ''), created_at
		FROM attempts
		WHERE employee_id = $1 AND for_date BETWEEN $2 AND $3
		ORDER BY for_date, created_at
	`
	rows, err := s.DB.QueryContext(ctx, query, int64(employeeID), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.ActivityEvent
	for rows.Next() {
		var ev domain.ActivityEvent
		var product string
		var meeting uuid.NullUUID
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &product, &ev.Count, &ev.Date, &meeting, &ev.RequestID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		ev.Product = domain.ProductCode(product)
		ev.Date = domain.TruncateDate(ev.Date)
		if meeting.Valid {
			id := meeting.UUID
			ev.MeetingID = &id
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// TotalsByEmployee sums attempts of active employees within [from, to].
func (s *PostgresStore) TotalsByEmployee(ctx context.Context, from, to time.Time) (map[domain.EmployeeID]int, error) {
	query := `
		SELECT a.employee_id, COALESCE(SUM(a.attempt_count), 0)
		FROM attempts a
		JOIN employees e ON e.id = a.employee_id
		WHERE e.active AND a.for_date BETWEEN $1 AND $2
		GROUP BY a.employee_id
	`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum attempts: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.EmployeeID]int)
	for rows.Next() {
		var id int64
		var total sql.NullInt64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("failed to scan attempt total: %w", err)
		}
		out[domain.EmployeeID(id)] = int(total.Int64)
	}
	return out, rows.Err()
}
