package rag

import (
	"context"
	"sort"
	"strings"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"

	"go.uber.org/zap"
)

type lexicalCandidate struct {
	domain.PassageCandidate
	Score float64
}

// RankLexical filters and orders candidates by the blended lexical score.
// A candidate qualifies when it has any full-text relevance or its fuzzy
// similarity exceeds the threshold. The order is total (score desc, ordinal
// asc, document id asc), so a larger limit only appends to the result.
func RankLexical(candidates []domain.PassageCandidate, query string, limit int, opts Options, splitter SentenceSplitter) []domain.Passage {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	qualified := make([]lexicalCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Relevance <= 0 && c.Similarity <= opts.Threshold {
			continue
		}
		qualified = append(qualified, lexicalCandidate{
			PassageCandidate: c,
			Score:            opts.RankWeight*c.Relevance + opts.SimilarityWeight*c.Similarity,
		})
	}

	sort.Slice(qualified, func(i, j int) bool {
		a, b := qualified[i], qualified[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return a.DocumentID < b.DocumentID
	})
	if len(qualified) > limit {
		qualified = qualified[:limit]
	}

	terms := utils.UniqueTokens(query)
	out := make([]domain.Passage, 0, len(qualified))
	for _, c := range qualified {
		out = append(out, domain.Passage{
			DocumentID: c.DocumentID,
			Ordinal:    c.Ordinal,
			Section:    c.Section,
			Snippet:    BuildSnippet(c.Content, terms, splitter),
			Score:      c.Score,
		})
	}
	return out
}

// Lexical runs the lexical mode for an optional product scope.
func (r *RAG) Lexical(ctx context.Context, product domain.ProductCode, query string, limit int) ([]domain.Passage, error) {
	if limit <= 0 {
		limit = r.opts.Limit
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	// The store pre-orders by the same blend; the extra headroom absorbs
	// floating point differences between SQL and Go.
	q := domain.LexicalQuery{
		Product:          product,
		Text:             query,
		Threshold:        r.opts.Threshold,
		RankWeight:       r.opts.RankWeight,
		SimilarityWeight: r.opts.SimilarityWeight,
		Limit:            max(limit*4, 32),
	}

	readCtx, cancel := utils.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	candidates, err := r.store.SearchPassages(readCtx, q)
	if err != nil {
		return nil, apperrors.Dependency(err, "search passages")
	}

	passages := RankLexical(candidates, query, limit, r.opts, r.sentenceSplitter)
	r.logger.Debug("Lexical passage search",
		zap.String("product", string(product)),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(passages)))
	return passages, nil
}
