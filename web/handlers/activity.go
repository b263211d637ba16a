package handlers

import (
	"net/http"
	"time"

	"sales-assistant/web/services"
	"sales-assistant/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActivityHandler serves the employee's own writes: attempts, meetings,
// plans and notes.
type ActivityHandler struct {
	activity *services.ActivityService
	plans    *services.PlanService
	notes    *services.NoteService
	location *time.Location
	logger   *zap.Logger
}

func NewActivityHandler(activity *services.ActivityService, plans *services.PlanService, notes *services.NoteService, location *time.Location, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, plans: plans, notes: notes, location: location, logger: logger}
}

// RecordAttempts handles POST /api/attempts.
func (h *ActivityHandler) RecordAttempts(c *gin.Context) {
	employee := mustEmployee(c)
	var req types.RecordAttemptsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.activity.RecordAttempts(c.Request.Context(), employee.ID, req)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecordMeeting handles POST /api/meetings.
func (h *ActivityHandler) RecordMeeting(c *gin.Context) {
	employee := mustEmployee(c)
	var req types.RecordMeetingRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.activity.RecordMeeting(c.Request.Context(), employee.ID, req)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting_id": id})
}

// SetPlan handles PUT /api/plan.
func (h *ActivityHandler) SetPlan(c *gin.Context) {
	employee := mustEmployee(c)
	var req types.SetPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.SetPlan(c.Request.Context(), employee.ID, req)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusOK, plan)
}

// AddNote handles POST /api/notes.
func (h *ActivityHandler) AddNote(c *gin.Context) {
	employee := mustEmployee(c)
	var req types.AddNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := h.notes.Add(c.Request.Context(), employee.ID, req.Text)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ListNotes handles GET /api/notes.
func (h *ActivityHandler) ListNotes(c *gin.Context) {
	employee := mustEmployee(c)
	notes, err := h.notes.List(c.Request.Context(), employee.ID)
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"text":  services.FormatNotes(notes, h.location),
	})
}
