package audit

import (
	"context"
	"errors"
	"testing"

	"sales-assistant/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	entries []domain.AuditLogEntry
	err     error
	ctxErr  error
}

func (s *recordingStore) InsertAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	s.ctxErr = ctx.Err()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestRecordDetachesFromCaller(t *testing.T) {
	store := &recordingStore{}
	r := NewRecorder(store, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, 42, ActionNoteAdd, map[string]any{"len": 5})

	require.Len(t, store.entries, 1)
	assert.NoError(t, store.ctxErr)
	require.NotNil(t, store.entries[0].EmployeeID)
	assert.Equal(t, domain.EmployeeID(42), *store.entries[0].EmployeeID)
	assert.Equal(t, ActionNoteAdd, store.entries[0].Action)
}

func TestRecordSystemActionAndFailure(t *testing.T) {
	store := &recordingStore{}
	r := NewRecorder(store, 0, zap.NewNop())
	r.Record(context.Background(), 0, ActionSummary, nil)
	require.Len(t, store.entries, 1)
	assert.Nil(t, store.entries[0].EmployeeID)

	failing := &recordingStore{err: errors.New("down")}
	assert.NotPanics(t, func() {
		NewRecorder(failing, 0, zap.NewNop()).Record(context.Background(), 1, ActionAsk, nil)
	})

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.Record(context.Background(), 1, ActionAsk, nil) })
}
