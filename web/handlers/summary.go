package handlers

import (
	"net/http"
	"time"

	"sales-assistant/domain"
	"sales-assistant/report"
	"sales-assistant/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SummaryHandler struct {
	runner *report.Runner
	today  func() time.Time
	logger *zap.Logger
}

func NewSummaryHandler(runner *report.Runner, today func() time.Time, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{runner: runner, today: today, logger: logger}
}

// Stats handles GET /api/stats?date=: the caller's own summary, not pushed
// anywhere.
func (h *SummaryHandler) Stats(c *gin.Context) {
	employee := mustEmployee(c)
	asOf, err := dateParam(c.Query("date"), h.today)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	summary, err := h.runner.Build(c.Request.Context(), employee, asOf)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Run handles POST /api/summary/run: build and deliver summaries for the
// given employees, or all active employees.
func (h *SummaryHandler) Run(c *gin.Context) {
	var req types.RunSummaryRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	asOf, err := dateParam(req.AsOf, h.today)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	ids := make([]domain.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		ids[i] = domain.EmployeeID(id)
	}

	outcomes, err := h.runner.Run(c.Request.Context(), ids, asOf)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	if outcomes == nil {
		outcomes = []report.Outcome{}
	}
	c.JSON(http.StatusOK, gin.H{"as_of": asOf.Format(time.DateOnly), "outcomes": outcomes})
}
