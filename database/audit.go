package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sales-assistant/domain"

	"github.com/google/uuid"
)

func (s *PostgresStore) InsertAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	payload := entry.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	var employee sql.NullInt64
	if entry.EmployeeID != nil {
		employee = sql.NullInt64{Int64: int64(*entry.EmployeeID), Valid: true}
	}

	query := `INSERT INTO audit_log (id, employee_id, action, payload, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query, entry.ID, employee, entry.Action, string(payloadJSON), entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
