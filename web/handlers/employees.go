package handlers

import (
	"net/http"

	"sales-assistant/utils"
	"sales-assistant/web/services"
	"sales-assistant/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EmployeeHandler struct {
	employees *services.EmployeeService
	logger    *zap.Logger
}

func NewEmployeeHandler(employees *services.EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, logger: logger}
}

// Register handles POST /api/employees.
func (h *EmployeeHandler) Register(c *gin.Context) {
	var req types.RegisterEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	employee, err := h.employees.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", req.ID))
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// Deactivate handles DELETE /api/employees/:id.
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	id, err := utils.ParseEmployeeID(c.Param("id"))
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	if err := h.employees.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(id)))
		return
	}
	c.Status(http.StatusNoContent)
}
