package report

import (
	"context"
	"errors"
	"time"

	"sales-assistant/domain"

	"go.uber.org/zap"
)

// Notifier delivers a rendered summary to an employee.
type Notifier interface {
	Notify(ctx context.Context, employee domain.Employee, summary *Summary) error
}

// LogNotifier writes summaries to the log. It stands in for a chat push
// when no delivery channel is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(ctx context.Context, employee domain.Employee, summary *Summary) error {
	n.Logger.Info("Daily summary",
		zap.Int64("employee_id", int64(employee.ID)),
		zap.String("line", summary.Line))
	return nil
}

type TurnStore interface {
	InsertTurns(ctx context.Context, turns []domain.ConversationTurn) error
}

// TurnNotifier appends the summary to the employee's conversation as an
// auto-generated assistant turn.
type TurnNotifier struct {
	Store TurnStore
}

func (n TurnNotifier) Notify(ctx context.Context, employee domain.Employee, summary *Summary) error {
	return n.Store.InsertTurns(ctx, []domain.ConversationTurn{{
		EmployeeID:    employee.ID,
		Role:          domain.RoleAssistant,
		Content:       summary.Markdown,
		AutoGenerated: true,
		CreatedAt:     time.Now().UTC(),
	}})
}

// Notifiers fans a summary out to every notifier and joins their errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, employee domain.Employee, summary *Summary) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, employee, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
