// Package rag retrieves documentation passages for a product question, either
// lexically (full-text relevance blended with fuzzy similarity) or by
// embedding distance.
package rag

import (
	"context"
	"time"

	"sales-assistant/config"
	"sales-assistant/domain"

	"go.uber.org/zap"
)

const defaultPassageLimit = 8

// Store supplies the per-passage primitives; ranking happens here.
type Store interface {
	SearchPassages(ctx context.Context, q domain.LexicalQuery) ([]domain.PassageCandidate, error)
	NearestChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkHit, error)
}

// Embedder produces a query embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Options struct {
	Limit            int
	RankWeight       float64
	SimilarityWeight float64
	Threshold        float64
	Timeout          time.Duration
}

// OptionsFromConfig maps retrieval settings from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Limit:            cfg.PassageLimit,
		RankWeight:       cfg.LexicalRankWeight,
		SimilarityWeight: cfg.LexicalSimilarityWeight,
		Threshold:        cfg.SimilarityThreshold,
		Timeout:          cfg.StorageTimeout,
	}
}

type RAG struct {
	store            Store
	embedder         Embedder
	opts             Options
	sentenceSplitter SentenceSplitter
	logger           *zap.Logger
}

// New builds a retriever. embedder may be nil, which disables vector mode.
func New(store Store, embedder Embedder, opts Options, logger *zap.Logger) *RAG {
	if opts.Limit <= 0 {
		opts.Limit = defaultPassageLimit
	}
	if opts.RankWeight == 0 && opts.SimilarityWeight == 0 {
		opts.RankWeight, opts.SimilarityWeight = 0.8, 0.2
	}
	return &RAG{
		store:            store,
		embedder:         embedder,
		opts:             opts,
		sentenceSplitter: NewProseSentenceSplitter(logger),
		logger:           logger,
	}
}

// VectorEnabled reports whether an embedder is configured.
func (r *RAG) VectorEnabled() bool { return r.embedder != nil }
