package services

import (
	"context"
	"strings"
	"time"

	"sales-assistant/audit"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/pii"
	"sales-assistant/utils"

	"go.uber.org/zap"
)

// NoNotes is shown when an employee has no notes.
const NoNotes = "Комментариев нет"

type NoteStore interface {
	InsertNote(ctx context.Context, n domain.Note) (domain.Note, error)
	ListNotes(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.Note, error)
}

type NoteService struct {
	store     NoteStore
	audit     *audit.Recorder
	listLimit int
	timeout   time.Duration
	logger    *zap.Logger
}

func NewNoteService(store NoteStore, recorder *audit.Recorder, listLimit int, timeout time.Duration, logger *zap.Logger) *NoteService {
	if listLimit <= 0 {
		listLimit = 20
	}
	return &NoteService{store: store, audit: recorder, listLimit: listLimit, timeout: timeout, logger: logger}
}

// Add sanitizes and stores a note.
func (s *NoteService) Add(ctx context.Context, employeeID domain.EmployeeID, text string) (domain.Note, error) {
	clean := pii.Sanitize(text)
	if err := domain.ValidateText("text", clean); err != nil {
		return domain.Note{}, err
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	note, err := s.store.InsertNote(writeCtx, domain.Note{
		EmployeeID: employeeID,
		Content:    clean,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		if apperrors.IsIntegrity(err) {
			return domain.Note{}, err
		}
		return domain.Note{}, apperrors.Dependency(err, "add note")
	}
	s.audit.Record(ctx, employeeID, audit.ActionNoteAdd, map[string]any{"len": len(clean), "masked": pii.ContainsPII(text)})
	return note, nil
}

// List returns the newest notes, newest first.
func (s *NoteService) List(ctx context.Context, employeeID domain.EmployeeID) ([]domain.Note, error) {
	readCtx, cancel := utils.WithTimeout(ctx, s.timeout)
	defer cancel()
	notes, err := s.store.ListNotes(readCtx, employeeID, s.listLimit)
	if err != nil {
		return nil, apperrors.Dependency(err, "list notes")
	}
	return notes, nil
}

// FormatNotes renders notes as "timestamp:\ncontent" blocks separated by a
// blank line.
func FormatNotes(notes []domain.Note, loc *time.Location) string {
	if len(notes) == 0 {
		return NoNotes
	}
	if loc == nil {
		loc = time.UTC
	}
	blocks := make([]string, len(notes))
	for i, n := range notes {
		blocks[i] = n.CreatedAt.In(loc).Format("2006-01-02 15:04") + ":\n" + n.Content
	}
	return strings.Join(blocks, "\n\n")
}
