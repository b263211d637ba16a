// Package audit records user-visible actions. Recording is best-effort: a
// failed write is logged and never surfaces to the caller.
package audit

import (
	"context"
	"time"

	"sales-assistant/domain"
	"sales-assistant/utils"

	"go.uber.org/zap"
)

const (
	ActionRegister     = "register"
	ActionDeactivate   = "deactivate"
	ActionSaveAttempts = "save_attempts"
	ActionMeeting      = "meeting"
	ActionSetPlan      = "set_plan"
	ActionNoteAdd      = "note_add"
	ActionAsk          = "assistant_ask"
	ActionSummary      = "summary_sent"
	ActionError        = "error"
)

type Store interface {
	InsertAuditLog(ctx context.Context, entry domain.AuditLogEntry) error
}

type Recorder struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger
}

func NewRecorder(store Store, timeout time.Duration, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, timeout: timeout, logger: logger}
}

// Record writes an entry on a context detached from the caller. employeeID
// may be zero for system actions.
func (r *Recorder) Record(ctx context.Context, employeeID domain.EmployeeID, action string, payload map[string]any) {
	if r == nil || r.store == nil {
		return
	}
	entry := domain.AuditLogEntry{Action: action, Payload: payload, CreatedAt: time.Now().UTC()}
	if employeeID != 0 {
		id := employeeID
		entry.EmployeeID = &id
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.InsertAuditLog(writeCtx, entry); err != nil {
		r.logger.Warn("Failed to write audit log",
			zap.String("action", action),
			zap.Int64("employee_id", int64(employeeID)),
			zap.Error(err))
	}
}
