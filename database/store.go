package database

import (
	"context"
	"time"

	"sales-assistant/domain"

	"github.com/google/uuid"
)

// Store is the full persistence surface the application is wired against.
// PostgresStore and MemoryStore both implement it.
type Store interface {
	UpsertEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error)
	GetEmployee(ctx context.Context, id domain.EmployeeID) (domain.Employee, error)
	SetEmployeeActive(ctx context.Context, id domain.EmployeeID, active bool) error
	ListActiveEmployees(ctx context.Context) ([]domain.Employee, error)
	ListEmployeesByIDs(ctx context.Context, ids []domain.EmployeeID) ([]domain.Employee, error)

	InsertAttempts(ctx context.Context, events []domain.ActivityEvent) (int, error)
	InsertMeeting(ctx context.Context, m domain.MeetingEvent) (uuid.UUID, error)
	ListEvents(ctx context.Context, employeeID domain.EmployeeID, from, to time.Time) ([]domain.ActivityEvent, error)
	TotalsByEmployee(ctx context.Context, from, to time.Time) (map[domain.EmployeeID]int, error)

	UpsertPlan(ctx context.Context, p domain.MonthlyPlan) (domain.MonthlyPlan, error)
	GetPlan(ctx context.Context, employeeID domain.EmployeeID, year int, month time.Month) (*domain.MonthlyPlan, error)

	InsertFact(ctx context.Context, f domain.ProductFact) (int64, error)
	ListFacts(ctx context.Context, product domain.ProductCode) ([]domain.ProductFact, error)

	UpsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error
	DeleteDocument(ctx context.Context, documentID string) (int64, error)
	SearchPassages(ctx context.Context, q domain.LexicalQuery) ([]domain.PassageCandidate, error)
	NearestChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkHit, error)

	InsertTurns(ctx context.Context, turns []domain.ConversationTurn) error
	RecentTurns(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.ConversationTurn, error)

	InsertNote(ctx context.Context, n domain.Note) (domain.Note, error)
	ListNotes(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.Note, error)

	InsertAuditLog(ctx context.Context, entry domain.AuditLogEntry) error

	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
