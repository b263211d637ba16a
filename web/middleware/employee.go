package middleware

import (
	"context"
	"net/http"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EmployeeHeader carries the chat-platform identity of the caller.
const EmployeeHeader = "X-Employee-ID"

const employeeKey = "employee"

type EmployeeLookup interface {
	Active(ctx context.Context, id domain.EmployeeID) (domain.Employee, error)
}

// EmployeeMiddleware resolves the caller to an active employee and stores it
// on the context. Unknown or deactivated employees are rejected.
func EmployeeMiddleware(lookup EmployeeLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(EmployeeHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "employee identity required"})
			return
		}
		id, err := utils.ParseEmployeeID(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "employee_id"})
			return
		}

		employee, err := lookup.Active(c.Request.Context(), id)
		switch {
		case err == nil:
		case apperrors.IsUnauthorized(err):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "employee is not registered or inactive"})
			return
		default:
			logger.Error("Failed to load employee", zap.Int64("employee_id", int64(id)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			return
		}

		c.Set(employeeKey, employee)
		c.Next()
	}
}

// CurrentEmployee returns the employee stored by EmployeeMiddleware.
func CurrentEmployee(c *gin.Context) (domain.Employee, bool) {
	v, ok := c.Get(employeeKey)
	if !ok {
		return domain.Employee{}, false
	}
	employee, ok := v.(domain.Employee)
	return employee, ok
}
