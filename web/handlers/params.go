package handlers

import (
	"strconv"
	"strings"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/web/middleware"

	"github.com/gin-gonic/gin"
)

// dateParam parses an optional YYYY-MM-DD value, defaulting to today.
func dateParam(raw string, today func() time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return today(), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date", "expected YYYY-MM-DD")
	}
	return d, nil
}

func intParam(raw, field string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperrors.NewValidationError(field, "must be a positive integer")
	}
	return n, nil
}

func optionalProduct(raw string) (domain.ProductCode, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	p, err := domain.ParseProductCode(raw)
	if err != nil || !p.ValidForDocuments() {
		return "", apperrors.NewValidationError("product_code", "unknown product code %q", raw)
	}
	return p, nil
}

func optionalCurrency(raw string) (domain.Currency, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	c, ok := domain.ParseCurrency(raw)
	if !ok {
		return "", apperrors.NewValidationError("currency", "unknown currency %q", raw)
	}
	return c, nil
}

// mustEmployee reads the employee set by the identity middleware.
func mustEmployee(c *gin.Context) domain.Employee {
	employee, ok := middleware.CurrentEmployee(c)
	if !ok {
		panic("handler mounted without employee middleware")
	}
	return employee
}
