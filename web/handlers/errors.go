package handlers

import (
	"net/http"

	"sales-assistant/agent"
	apperrors "sales-assistant/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	// Log technical error with context
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}

	// Return user-friendly message
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondError maps an application error to its status. Validation errors
// name the offending field; dependency failures only show the apology.
func respondError(c *gin.Context, err error, logger *zap.Logger, fields ...zap.Field) {
	switch {
	case apperrors.IsInvalidInput(err):
		body := gin.H{"error": err.Error()}
		if field, ok := apperrors.FieldOf(err); ok {
			body["field"] = field
		}
		c.JSON(http.StatusBadRequest, body)
	case apperrors.IsUnauthorized(err):
		respondWithClientError(c, http.StatusForbidden, "employee is not registered or inactive")
	case apperrors.IsNotFound(err):
		respondWithClientError(c, http.StatusNotFound, "not found")
	case apperrors.IsIntegrity(err):
		respondWithError(c, http.StatusConflict, err, "request conflicts with stored data", logger, fields...)
	default:
		respondWithError(c, http.StatusServiceUnavailable, err, agent.Apology, logger, fields...)
	}
}

// bindJSON decodes the body or answers 400.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return false
	}
	return true
}
