package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "sales-assistant/errors"
)

const maxTextLength = 4000

// Validate checks the boundary invariants of an activity event.
func (e ActivityEvent) Validate() error {
	if e.EmployeeID <= 0 {
		return apperrors.NewValidationError("employee_id", "must be positive")
	}
	if !e.Product.Valid() {
		return apperrors.NewValidationError("product_code", "unknown product code %q", e.Product)
	}
	if e.Count < 0 {
		return apperrors.NewValidationError("count", "must not be negative, got %d", e.Count)
	}
	if e.Date.IsZero() {
		return apperrors.NewValidationError("date", "is required")
	}
	return nil
}

func (m MeetingEvent) Validate() error {
	if m.EmployeeID <= 0 {
		return apperrors.NewValidationError("employee_id", "must be positive")
	}
	if !m.Product.Valid() {
		return apperrors.NewValidationError("product_code", "unknown product code %q", m.Product)
	}
	if m.Date.IsZero() {
		return apperrors.NewValidationError("date", "is required")
	}
	return nil
}

func (p MonthlyPlan) Validate() error {
	if p.EmployeeID <= 0 {
		return apperrors.NewValidationError("employee_id", "must be positive")
	}
	if p.Year < 2000 || p.Year > 2100 {
		return apperrors.NewValidationError("year", "out of range: %d", p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return apperrors.NewValidationError("month", "out of range: %d", p.Month)
	}
	if p.Target < 0 {
		return apperrors.NewValidationError("target", "must not be negative")
	}
	return nil
}

func (f ProductFact) Validate() error {
	if !f.Product.Valid() {
		return apperrors.NewValidationError("product_code", "unknown product code %q", f.Product)
	}
	if strings.TrimSpace(f.FactKey) == "" {
		return apperrors.NewValidationError("fact_key", "is required")
	}
	if f.TermDays != nil && *f.TermDays <= 0 {
		return apperrors.NewValidationError("term_days", "must be positive")
	}
	if f.Amount.Min != nil && f.Amount.Max != nil && *f.Amount.Min > *f.Amount.Max {
		return apperrors.NewValidationError("amount", "min exceeds max")
	}
	if f.Validity.From != nil && f.Validity.To != nil && f.Validity.From.After(*f.Validity.To) {
		return apperrors.NewValidationError("validity", "from is after to")
	}
	if f.NumericValue == nil && strings.TrimSpace(f.TextValue) == "" {
		return apperrors.NewValidationError("value", "numeric or text value is required")
	}
	return nil
}

// ValidateText rejects empty or oversized free text.
func ValidateText(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError(field, "must not be empty")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return apperrors.NewValidationError(field, "longer than %d characters", maxTextLength)
	}
	return nil
}
