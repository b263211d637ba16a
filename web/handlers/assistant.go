package handlers

import (
	"net/http"

	"sales-assistant/agent"
	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/web/format"
	"sales-assistant/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssistantHandler struct {
	assistant *agent.Assistant
	sessions  *agent.Sessions
	logger    *zap.Logger
}

func NewAssistantHandler(assistant *agent.Assistant, sessions *agent.Sessions, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, sessions: sessions, logger: logger}
}

// Ask handles POST /api/assistant/ask.
func (h *AssistantHandler) Ask(c *gin.Context) {
	employee := mustEmployee(c)
	var req types.AskRequest
	if !bindJSON(c, &req) {
		return
	}
	slots, err := requestSlots(req)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	if req.ResetSlots {
		h.sessions.Reset(employee.ID)
	}

	answer, err := h.assistant.Ask(c.Request.Context(), employee, req.Text, slots, h.sessions.For(employee.ID))
	if err != nil {
		respondError(c, err, h.logger, zap.Int64("employee_id", int64(employee.ID)))
		return
	}
	c.JSON(http.StatusOK, types.AskResponse{
		Answer:   answer.Text,
		HTML:     format.ConvertToHTML(answer.Text),
		OffTopic: answer.OffTopic,
	})
}

// ResetSlots handles DELETE /api/assistant/slots.
func (h *AssistantHandler) ResetSlots(c *gin.Context) {
	employee := mustEmployee(c)
	h.sessions.Reset(employee.ID)
	c.Status(http.StatusNoContent)
}

func requestSlots(req types.AskRequest) (agent.Slots, error) {
	var slots agent.Slots
	if req.ProductCode != "" {
		p, err := domain.ParseProductCode(req.ProductCode)
		if err != nil || !p.Valid() {
			return slots, apperrors.NewValidationError("product_code", "unknown product code %q", req.ProductCode)
		}
		slots.Product = p
	}
	currency, err := optionalCurrency(req.Currency)
	if err != nil {
		return slots, err
	}
	slots.Currency = currency
	if req.Channel != "" {
		slots.Channel = domain.NormalizeChannel(req.Channel)
	}
	if req.TermDays != nil {
		if *req.TermDays <= 0 {
			return slots, apperrors.NewValidationError("term_days", "must be positive")
		}
		slots.TermDays = req.TermDays
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			return slots, apperrors.NewValidationError("amount", "must not be negative")
		}
		slots.Amount = req.Amount
	}
	return slots, nil
}
