package types

// AgentMessage represents a message in the format expected by the LLM.
type AgentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecordAttemptsRequest records attempts per product for one business date.
type RecordAttemptsRequest struct {
	Date      string         `json:"date"`
	Attempts  map[string]int `json:"attempts"`
	MeetingID string         `json:"meeting_id,omitempty"`
	RequestID string         `json:"request_id"`
}

type RecordMeetingRequest struct {
	Date        string `json:"date"`
	ProductCode string `json:"product_code"`
	RequestID   string `json:"request_id"`
}

type RegisterEmployeeRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type SetPlanRequest struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Target float64 `json:"target"`
}

type AddNoteRequest struct {
	Text string `json:"text"`
}

// AskRequest is a question for the assistant. Slots left empty are taken
// from the employee's session.
type AskRequest struct {
	Text        string   `json:"text"`
	ProductCode string   `json:"product_code,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Channel     string   `json:"channel,omitempty"`
	TermDays    *int     `json:"term_days,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	ResetSlots  bool     `json:"reset_slots,omitempty"`
}

type AskResponse struct {
	Answer   string `json:"answer"`
	HTML     string `json:"html,omitempty"`
	OffTopic bool   `json:"off_topic"`
}

type ResolveFactRequest struct {
	ProductCode string   `json:"product_code"`
	FactKey     string   `json:"fact_key,omitempty"`
	Channel     string   `json:"channel,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	TermDays    *int     `json:"term_days,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	IssueDate   string   `json:"issue_date,omitempty"`
}

type RunSummaryRequest struct {
	EmployeeIDs []int64 `json:"employee_ids,omitempty"`
	AsOf        string  `json:"as_of,omitempty"`
}

// ChunkInput is one pre-chunked documentation fragment. Embedding is
// optional; chunks without one are only reachable lexically.
type ChunkInput struct {
	DocumentID  string    `json:"document_id"`
	Ordinal     int       `json:"ordinal"`
	Section     string    `json:"section,omitempty"`
	Content     string    `json:"content"`
	ProductCode string    `json:"product_code,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	TermDays    *int      `json:"term_days,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

type UpsertChunksRequest struct {
	Chunks []ChunkInput `json:"chunks"`
}
