package services

import (
	"context"
	"strings"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"
	"sales-assistant/web/types"

	"go.uber.org/zap"
)

type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error
	DeleteDocument(ctx context.Context, documentID string) (int64, error)
}

// KnowledgeService loads pre-chunked documentation into the passage store.
type KnowledgeService struct {
	store   ChunkStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewKnowledgeService(store ChunkStore, timeout time.Duration, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{store: store, timeout: timeout, logger: logger}
}

// UpsertChunks validates and stores chunks, replacing any with the same
// document id and ordinal.
func (s *KnowledgeService) UpsertChunks(ctx context.Context, req types.UpsertChunksRequest) (int, error) {
	if len(req.Chunks) == 0 {
		return 0, apperrors.NewValidationError("chunks", "must not be empty")
	}
	chunks := make([]domain.DocumentChunk, 0, len(req.Chunks))
	for _, in := range req.Chunks {
		chunk, err := toChunk(in)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, chunk)
	}

	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.UpsertChunks(writeCtx, chunks); err != nil {
		return 0, apperrors.Dependency(err, "upsert chunks")
	}
	s.logger.Info("Upserted document chunks", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

func (s *KnowledgeService) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return 0, apperrors.NewValidationError("document_id", "is required")
	}
	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.store.DeleteDocument(writeCtx, documentID)
	if err != nil {
		return 0, apperrors.Dependency(err, "delete document")
	}
	return n, nil
}

func toChunk(in types.ChunkInput) (domain.DocumentChunk, error) {
	chunk := domain.DocumentChunk{
		DocumentID: strings.TrimSpace(in.DocumentID),
		Ordinal:    in.Ordinal,
		Section:    strings.TrimSpace(in.Section),
		Content:    strings.TrimSpace(in.Content),
		Embedding:  in.Embedding,
		TermDays:   in.TermDays,
	}
	if chunk.DocumentID == "" {
		return chunk, apperrors.NewValidationError("document_id", "is required")
	}
	if chunk.Ordinal < 0 {
		return chunk, apperrors.NewValidationError("ordinal", "must not be negative")
	}
	if chunk.Content == "" {
		return chunk, apperrors.NewValidationError("content", "must not be empty")
	}
	if in.ProductCode != "" {
		p, err := domain.ParseProductCode(in.ProductCode)
		if err != nil || !p.ValidForDocuments() {
			return chunk, apperrors.NewValidationError("product_code", "unknown product code %q", in.ProductCode)
		}
		chunk.Product = p
	}
	if in.Currency != "" {
		c, ok := domain.ParseCurrency(in.Currency)
		if !ok {
			return chunk, apperrors.NewValidationError("currency", "unknown currency %q", in.Currency)
		}
		chunk.Currency = c
	}
	if chunk.TermDays != nil && *chunk.TermDays <= 0 {
		return chunk, apperrors.NewValidationError("term_days", "must be positive")
	}
	chunk.HasNumbers = utils.HasNumbers(chunk.Section + " " + chunk.Content)
	return chunk, nil
}
