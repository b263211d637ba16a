package handlers

import (
	"net/http"
	"strings"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/facts"
	"sales-assistant/rag"
	"sales-assistant/web/services"
	"sales-assistant/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KnowledgeHandler exposes fact resolution, passage search and the admin
// endpoints that load facts and documentation chunks.
type KnowledgeHandler struct {
	facts     *facts.Service
	passages  *rag.RAG
	knowledge *services.KnowledgeService
	today     func() time.Time
	logger    *zap.Logger
}

func NewKnowledgeHandler(f *facts.Service, passages *rag.RAG, knowledge *services.KnowledgeService, today func() time.Time, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{facts: f, passages: passages, knowledge: knowledge, today: today, logger: logger}
}

// ResolveFact handles POST /api/facts/resolve. A miss is a 200 with
// found=false.
func (h *KnowledgeHandler) ResolveFact(c *gin.Context) {
	var req types.ResolveFactRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := domain.ParseProductCode(req.ProductCode)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	currency, err := optionalCurrency(req.Currency)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	issueDate, err := dateParam(req.IssueDate, h.today)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	q := facts.Query{
		Product:   product,
		FactKey:   strings.TrimSpace(req.FactKey),
		Currency:  currency,
		TermDays:  req.TermDays,
		Amount:    req.Amount,
		IssueDate: issueDate,
	}
	if req.Channel != "" {
		q.Channel = domain.NormalizeChannel(req.Channel)
	}

	res, err := h.facts.Resolve(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, h.logger, zap.String("product_code", string(product)))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"found": res.Found,
		"tier":  res.Tier.String(),
		"fact":  res.Fact,
	})
}

// SearchPassages handles GET /api/passages?q=&product_code=&currency=&limit=.
func (h *KnowledgeHandler) SearchPassages(c *gin.Context) {
	text := strings.TrimSpace(c.Query("q"))
	if err := domain.ValidateText("q", text); err != nil {
		respondError(c, err, h.logger)
		return
	}
	product, err := optionalProduct(c.Query("product_code"))
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	currency, err := optionalCurrency(c.Query("currency"))
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	limit, err := intParam(c.Query("limit"), "limit", 0)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}

	passages, mode, err := h.passages.Retrieve(c.Request.Context(), rag.Request{
		Product:  product,
		Currency: currency,
		Text:     text,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	if passages == nil {
		passages = []domain.Passage{}
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "passages": passages})
}

// AddFact handles POST /api/admin/facts.
func (h *KnowledgeHandler) AddFact(c *gin.Context) {
	var fact domain.ProductFact
	if !bindJSON(c, &fact) {
		return
	}
	if fact.Currency != "" {
		currency, ok := domain.ParseCurrency(string(fact.Currency))
		if !ok {
			respondError(c, apperrors.NewValidationError("currency", "unknown currency %q", fact.Currency), h.logger)
			return
		}
		fact.Currency = currency
	}
	if fact.Channel != "" {
		fact.Channel = domain.NormalizeChannel(string(fact.Channel))
	}
	fact.ID = 0
	id, err := h.facts.AddFact(c.Request.Context(), fact)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpsertChunks handles POST /api/admin/chunks.
func (h *KnowledgeHandler) UpsertChunks(c *gin.Context) {
	var req types.UpsertChunksRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.knowledge.UpsertChunks(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserted": n})
}

// DeleteDocument handles DELETE /api/admin/documents/:id.
func (h *KnowledgeHandler) DeleteDocument(c *gin.Context) {
	n, err := h.knowledge.DeleteDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
