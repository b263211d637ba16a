package utils

import (
	"strconv"
	"strings"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"

	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// ParseEmployeeID parses a positive numeric employee identity.
func ParseEmployeeID(raw string) (domain.EmployeeID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("employee_id", "must be a positive integer")
	}
	return domain.EmployeeID(id), nil
}

// NormalizeRequestID trims a caller-supplied idempotency key and rejects
// keys that cannot be stored.
func NormalizeRequestID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if len(id) > maxRequestIDLength {
		return "", apperrors.NewValidationError("request_id", "longer than %d characters", maxRequestIDLength)
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return "", apperrors.NewValidationError("request_id", "must be printable ASCII")
		}
	}
	return id, nil
}

// GenerateRequestID creates an idempotency key for internally issued writes.
func GenerateRequestID() string {
	return uuid.New().String()
}
