package rag

import (
	"context"

	"sales-assistant/domain"

	"go.uber.org/zap"
)

// Mode names the retrieval strategy that produced a result.
type Mode string

const (
	ModeLexical Mode = "lexical"
	ModeVector  Mode = "vector"
)

// Request is a retrieval query with optional structured scope.
type Request struct {
	Product  domain.ProductCode
	Currency domain.Currency
	Text     string
	Limit    int
}

// Retrieve prefers vector mode when an embedder is configured and falls back
// to lexical mode when the embedder or the vector search fails.
func (r *RAG) Retrieve(ctx context.Context, req Request) ([]domain.Passage, Mode, error) {
	if r.embedder != nil {
		passages, err := r.Vector(ctx, req.Product, req.Currency, req.Text, req.Limit)
		if err == nil {
			return passages, ModeVector, nil
		}
		if ctx.Err() != nil {
			return nil, ModeVector, err
		}
		r.logger.Warn("Vector retrieval failed, falling back to lexical search", zap.Error(err))
	}
	passages, err := r.Lexical(ctx, req.Product, req.Text, req.Limit)
	return passages, ModeLexical, err
}
