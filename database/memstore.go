package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"

	"github.com/google/uuid"
)

// MemoryStore is an in-process store with the same semantics as
// PostgresStore, employee and meeting references included. It backs local
// runs and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	employees  map[domain.EmployeeID]domain.Employee
	attempts   []domain.ActivityEvent
	attemptKey map[string]struct{}
	meetings   map[uuid.UUID]domain.MeetingEvent
	meetingKey map[string]uuid.UUID
	plans      map[planKey]domain.MonthlyPlan
	facts      []domain.ProductFact
	nextFactID int64
	chunks     map[chunkKey]domain.DocumentChunk
	turns      []domain.ConversationTurn
	notes      []domain.Note
	audit      []domain.AuditLogEntry
	now        func() time.Time
}

type planKey struct {
	employee domain.EmployeeID
	year     int
	month    time.Month
}

type chunkKey struct {
	documentID string
	ordinal    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees:  make(map[domain.EmployeeID]domain.Employee),
		attemptKey: make(map[string]struct{}),
		meetings:   make(map[uuid.UUID]domain.MeetingEvent),
		meetingKey: make(map[string]uuid.UUID),
		plans:      make(map[planKey]domain.MonthlyPlan),
		chunks:     make(map[chunkKey]domain.DocumentChunk),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Close() error { return nil }

// requireEmployee mirrors the employee foreign keys. Callers hold m.mu.
func (m *MemoryStore) requireEmployee(id domain.EmployeeID) error {
	if _, ok := m.employees[id]; !ok {
		return apperrors.WrapErrorf(apperrors.ErrIntegrity, "unknown employee %d", id)
	}
	return nil
}

func (m *MemoryStore) UpsertEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.employees[e.ID]
	if !ok {
		existing = domain.Employee{ID: e.ID, CreatedAt: m.now()}
	}
	existing.Name = e.Name
	existing.Active = true
	m.employees[e.ID] = existing
	return existing, nil
}

func (m *MemoryStore) GetEmployee(ctx context.Context, id domain.EmployeeID) (domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return domain.Employee{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "employee %d", id)
	}
	return e, nil
}

func (m *MemoryStore) SetEmployeeActive(ctx context.Context, id domain.EmployeeID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return apperrors.WrapErrorf(apperrors.ErrNotFound, "employee %d", id)
	}
	e.Active = active
	m.employees[id] = e
	return nil
}

func (m *MemoryStore) ListActiveEmployees(ctx context.Context) ([]domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEmployees(func(domain.Employee) bool { return true }), nil
}

func (m *MemoryStore) ListEmployeesByIDs(ctx context.Context, ids []domain.EmployeeID) ([]domain.Employee, error) {
	want := make(map[domain.EmployeeID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEmployees(func(e domain.Employee) bool {
		_, ok := want[e.ID]
		return ok
	}), nil
}

func (m *MemoryStore) filterEmployees(keep func(domain.Employee) bool) []domain.Employee {
	var out []domain.Employee
	for _, e := range m.employees {
		if e.Active && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) InsertAttempts(ctx context.Context, events []domain.ActivityEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, ev := range events {
		if ev.Count < 0 {
			return 0, apperrors.NewValidationError("count", "must be non-negative")
		}
		if err := m.requireEmployee(ev.EmployeeID); err != nil {
			return 0, err
		}
		if ev.MeetingID != nil {
			if _, ok := m.meetings[*ev.MeetingID]; !ok {
				return 0, apperrors.WrapErrorf(apperrors.ErrIntegrity, "unknown meeting %s", *ev.MeetingID)
			}
		}
	}
	for _, ev := range events {
		if ev.RequestID != "" {
			key := ev.RequestID + "\x00" + string(ev.Product)
			if _, seen := m.attemptKey[key]; seen {
				continue
			}
			m.attemptKey[key] = struct{}{}
		}
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		ev.Date = domain.TruncateDate(ev.Date)
		ev.CreatedAt = m.now()
		m.attempts = append(m.attempts, ev)
		inserted++
	}
	return inserted, nil
}

func (m *MemoryStore) InsertMeeting(ctx context.Context, ev domain.MeetingEvent) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireEmployee(ev.EmployeeID); err != nil {
		return uuid.Nil, err
	}
	if ev.RequestID != "" {
		if id, ok := m.meetingKey[ev.RequestID]; ok {
			return id, nil
		}
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.Date = domain.TruncateDate(ev.Date)
	ev.CreatedAt = m.now()
	m.meetings[ev.ID] = ev
	if ev.RequestID != "" {
		m.meetingKey[ev.RequestID] = ev.ID
	}
	return ev.ID, nil
}

func (m *MemoryStore) ListEvents(ctx context.Context, employeeID domain.EmployeeID, from, to time.Time) ([]domain.ActivityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ActivityEvent
	for _, ev := range m.attempts {
		if ev.EmployeeID == employeeID && !ev.Date.Before(from) && !ev.Date.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *MemoryStore) TotalsByEmployee(ctx context.Context, from, to time.Time) (map[domain.EmployeeID]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.EmployeeID]int)
	for _, ev := range m.attempts {
		e, ok := m.employees[ev.EmployeeID]
		if !ok || !e.Active || ev.Date.Before(from) || ev.Date.After(to) {
			continue
		}
		out[ev.EmployeeID] += ev.Count
	}
	return out, nil
}

func (m *MemoryStore) UpsertPlan(ctx context.Context, p domain.MonthlyPlan) (domain.MonthlyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireEmployee(p.EmployeeID); err != nil {
		return domain.MonthlyPlan{}, err
	}
	p.UpdatedAt = m.now()
	m.plans[planKey{p.EmployeeID, p.Year, p.Month}] = p
	return p, nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, employeeID domain.EmployeeID, year int, month time.Month) (*domain.MonthlyPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[planKey{employeeID, year, month}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) InsertFact(ctx context.Context, f domain.ProductFact) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextFactID++
	f.ID = m.nextFactID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.now()
	}
	m.facts = append(m.facts, f)
	return f.ID, nil
}

func (m *MemoryStore) ListFacts(ctx context.Context, product domain.ProductCode) ([]domain.ProductFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ProductFact
	for _, f := range m.facts {
		if f.Product == product {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		c.HasNumbers = c.HasNumbers || utils.HasNumbers(c.Content)
		m.chunks[chunkKey{c.DocumentID, c.Ordinal}] = c
	}
	return nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.chunks {
		if k.documentID == documentID {
			delete(m.chunks, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SearchPassages(ctx context.Context, q domain.LexicalQuery) ([]domain.PassageCandidate, error) {
	terms := utils.UniqueTokens(q.Text)
	m.mu.RLock()
	var out []domain.PassageCandidate
	for _, c := range m.chunks {
		if q.Product != "" && c.Product != q.Product {
			continue
		}
		rel := utils.Relevance(terms, c.Section, c.Content)
		sim := utils.WordSimilarity(q.Text, c.Content)
		if rel <= 0 && sim <= q.Threshold {
			continue
		}
		out = append(out, domain.PassageCandidate{DocumentChunk: c, Relevance: rel, Similarity: sim})
	}
	m.mu.RUnlock()

	score := func(c domain.PassageCandidate) float64 {
		return q.RankWeight*c.Relevance + q.SimilarityWeight*c.Similarity
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := score(out[i]), score(out[j])
		if si != sj {
			return si > sj
		}
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) NearestChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkHit, error) {
	m.mu.RLock()
	var out []domain.ChunkHit
	for _, c := range m.chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		if q.Product != "" && c.Product != q.Product {
			continue
		}
		if q.Currency != "" && c.Currency != "" && c.Currency != q.Currency {
			continue
		}
		out = append(out, domain.ChunkHit{DocumentChunk: c, Distance: utils.CosineDistance(q.Embedding, c.Embedding)})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) InsertTurns(ctx context.Context, turns []domain.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range turns {
		if err := m.requireEmployee(t.EmployeeID); err != nil {
			return err
		}
	}
	for _, t := range turns {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = m.now()
		}
		m.turns = append(m.turns, t)
	}
	return nil
}

// RecentTurns returns up to limit of the newest turns in insertion order.
func (m *MemoryStore) RecentTurns(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.ConversationTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ConversationTurn
	for i := len(m.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.turns[i].EmployeeID == employeeID {
			out = append(out, m.turns[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *MemoryStore) InsertNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireEmployee(n.EmployeeID); err != nil {
		return domain.Note{}, err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.notes = append(m.notes, n)
	return n, nil
}

// ListNotes returns newest first; ties keep reverse insertion order.
func (m *MemoryStore) ListNotes(ctx context.Context, employeeID domain.EmployeeID, limit int) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Note
	for i := len(m.notes) - 1; i >= 0 && len(out) < limit; i-- {
		if m.notes[i].EmployeeID == employeeID {
			out = append(out, m.notes[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.audit = append(m.audit, entry)
	return nil
}

// AuditEntries returns a copy of the audit log in insertion order.
func (m *MemoryStore) AuditEntries() []domain.AuditLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.AuditLogEntry, len(m.audit))
	copy(out, m.audit)
	return out
}
