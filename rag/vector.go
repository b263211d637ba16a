package rag

import (
	"context"
	"sort"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"
)

// RankVector orders hits by cosine distance ascending, then ordinal and
// document id. Stores never return chunks without an embedding.
func RankVector(hits []domain.ChunkHit, limit int) []domain.ChunkHit {
	out := make([]domain.ChunkHit, len(hits))
	copy(out, hits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Vector returns the chunks closest to the query embedding, optionally
// scoped to a product and currency.
func (r *RAG) Vector(ctx context.Context, product domain.ProductCode, currency domain.Currency, query string, limit int) ([]domain.Passage, error) {
	if r.embedder == nil {
		return nil, apperrors.Dependency(errNoEmbedder, "vector search")
	}
	if limit <= 0 {
		limit = r.opts.Limit
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperrors.Dependency(err, "embed query")
	}

	readCtx, cancel := utils.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	hits, err := r.store.NearestChunks(readCtx, domain.VectorQuery{
		Embedding: embedding,
		Product:   product,
		Currency:  currency,
		Limit:     limit,
	})
	if err != nil {
		return nil, apperrors.Dependency(err, "nearest chunks")
	}

	terms := utils.UniqueTokens(query)
	ranked := RankVector(hits, limit)
	out := make([]domain.Passage, 0, len(ranked))
	for _, h := range ranked {
		out = append(out, domain.Passage{
			DocumentID: h.DocumentID,
			Ordinal:    h.Ordinal,
			Section:    h.Section,
			Snippet:    BuildSnippet(h.Content, terms, r.sentenceSplitter),
			Score:      1 - h.Distance,
		})
	}
	return out, nil
}
