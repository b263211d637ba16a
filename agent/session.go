package agent

import (
	"sync"

	"sales-assistant/domain"
)

// SessionState is one employee's conversational state. Its lock serialises
// "read recent context, then append turns" for that employee; slots persist
// across turns until reset.
type SessionState struct {
	mu    sync.Mutex
	slots Slots
}

func (s *SessionState) Lock()   { s.mu.Lock() }
func (s *SessionState) Unlock() { s.mu.Unlock() }

// Slots returns the current slots. Callers must hold the lock.
func (s *SessionState) Slots() Slots { return s.slots }

// SetSlots replaces the slots. Callers must hold the lock.
func (s *SessionState) SetSlots(slots Slots) { s.slots = slots }

// Sessions hands out one SessionState per employee.
type Sessions struct {
	mu     sync.Mutex
	states map[domain.EmployeeID]*SessionState
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[domain.EmployeeID]*SessionState)}
}

func (s *Sessions) For(id domain.EmployeeID) *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		state = &SessionState{}
		s.states[id] = state
	}
	return state
}

// Reset clears an employee's slots, waiting for any in-flight question.
func (s *Sessions) Reset(id domain.EmployeeID) {
	state := s.For(id)
	state.Lock()
	state.slots = Slots{}
	state.Unlock()
}
