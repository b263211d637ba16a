package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmployeeID is the chat-platform identity of a sales employee.
type EmployeeID int64

type Employee struct {
	ID        EmployeeID `json:"id"`
	Name      string     `json:"name"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActivityEvent records Count sales attempts for one product on a business
// date. Events for the same employee, product and day are additive.
type ActivityEvent struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID EmployeeID  `json:"employee_id"`
	Product    ProductCode `json:"product_code"`
	Count      int         `json:"count"`
	Date       time.Time   `json:"date"`
	MeetingID  *uuid.UUID  `json:"meeting_id,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type MeetingEvent struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID EmployeeID  `json:"employee_id"`
	Product    ProductCode `json:"product_code"`
	Date       time.Time   `json:"date"`
	RequestID  string      `json:"request_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type MonthlyPlan struct {
	EmployeeID EmployeeID `json:"employee_id"`
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	Target     float64    `json:"target"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AmountRange is an optional [Min, Max] constraint. MaxInclusive selects
// between "amount <= Max" and "amount < Max".
type AmountRange struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MaxInclusive bool     `json:"max_inclusive"`
}

// Declared reports whether either bound is set.
func (r AmountRange) Declared() bool {
	return r.Min != nil || r.Max != nil
}

func (r AmountRange) Contains(amount float64) bool {
	if r.Min != nil && amount < *r.Min {
		return false
	}
	if r.Max != nil {
		if r.MaxInclusive {
			return amount <= *r.Max
		}
		return amount < *r.Max
	}
	return true
}

// ValidityWindow bounds are business dates, both inclusive.
type ValidityWindow struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (w ValidityWindow) OpenEnded() bool {
	return w.From == nil && w.To == nil
}

func (w ValidityWindow) Contains(date time.Time) bool {
	if w.From != nil && date.Before(*w.From) {
		return false
	}
	if w.To != nil && date.After(*w.To) {
		return false
	}
	return true
}

// ProductFact is one structured parameter of a product, e.g. a deposit rate
// for a currency, term and channel. Empty Channel/Currency and nil TermDays
// mean the fact does not constrain that attribute.
type ProductFact struct {
	ID           int64          `json:"id"`
	Product      ProductCode    `json:"product_code"`
	Channel      Channel        `json:"channel,omitempty"`
	Currency     Currency       `json:"currency,omitempty"`
	FactKey      string         `json:"fact_key"`
	TermDays     *int           `json:"term_days,omitempty"`
	Amount       AmountRange    `json:"amount"`
	NumericValue *float64       `json:"numeric_value,omitempty"`
	TextValue    string         `json:"text_value,omitempty"`
	Validity     ValidityWindow `json:"validity"`
	Source       string         `json:"source,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DocumentChunk is an ingested fragment of product documentation.
type DocumentChunk struct {
	DocumentID string      `json:"document_id"`
	Ordinal    int         `json:"ordinal"`
	Section    string      `json:"section,omitempty"`
	Content    string      `json:"content"`
	Embedding  []float32   `json:"-"`
	Product    ProductCode `json:"product_code,omitempty"`
	Currency   Currency    `json:"currency,omitempty"`
	TermDays   *int        `json:"term_days,omitempty"`
	HasNumbers bool        `json:"has_numbers"`
}

// PassageCandidate carries the storage-side lexical primitives for a chunk.
// Relevance is normalised to [0,1).
type PassageCandidate struct {
	DocumentChunk
	Relevance  float64
	Similarity float64
}

// ChunkHit is a chunk returned by nearest-neighbour search.
type ChunkHit struct {
	DocumentChunk
	Distance float64
}

// Passage is a retrieval result handed to the context assembler.
type Passage struct {
	DocumentID string  `json:"document_id"`
	Ordinal    int     `json:"ordinal"`
	Section    string  `json:"section,omitempty"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

type LexicalQuery struct {
	Product          ProductCode
	Text             string
	Threshold        float64
	RankWeight       float64
	SimilarityWeight float64
	Limit            int
}

type VectorQuery struct {
	Embedding []float32
	Product   ProductCode
	Currency  Currency
	Limit     int
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is append-only; Content is always sanitized.
type ConversationTurn struct {
	ID            uuid.UUID  `json:"id"`
	EmployeeID    EmployeeID `json:"employee_id"`
	Role          Role       `json:"role"`
	Content       string     `json:"content"`
	OffTopic      bool       `json:"off_topic"`
	AutoGenerated bool       `json:"auto_generated"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Note struct {
	ID         uuid.UUID  `json:"id"`
	EmployeeID EmployeeID `json:"employee_id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLogEntry struct {
	ID         uuid.UUID      `json:"id"`
	EmployeeID *EmployeeID    `json:"employee_id,omitempty"`
	Action     string         `json:"action"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// EmployeeTotal is one employee's attempt total over some window.
type EmployeeTotal struct {
	EmployeeID EmployeeID `json:"employee_id"`
	Name       string     `json:"name"`
	Total      int        `json:"total"`
}
