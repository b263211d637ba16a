package database

import (
	"context"
	"database/sql"
	"fmt"

	"sales-assistant/domain"
	"sales-assistant/utils"

	"github.com/pgvector/pgvector-go"
)

const chunkColumns = `document_id, ordinal, COALESCE(section, ''), content, COALESCE(product_code, ''),
	COALESCE(currency, ''), term_days, has_numbers`

// SearchPassages computes full-text relevance (section weighted A, body B,
// normalised rank/(rank+1)) and word similarity for each chunk, keeping the
// ones that qualify. Rows come back pre-ordered by the blended score.
func (s *PostgresStore) SearchPassages(ctx context.Context, q domain.LexicalQuery) ([]domain.PassageCandidate, error) {
	query := `
		SELECT ` + chunkColumns + `, rel, sim
		FROM (
			SELECT c.*,
				CASE WHEN $1 = '' THEN 0 ELSE ts_rank(c.tsv, to_tsquery('simple', $1), 32) END AS rel,
				word_similarity($2, c.content) AS sim
			FROM document_chunks c
			WHERE ($3 = '' OR c.product_code = $3)
		) scored
		WHERE rel > 0 OR sim > $4::float8
		ORDER BY ($5::float8 * rel + $6::float8 * sim) DESC, ordinal, document_id
		LIMIT $7
	`
	rows, err := s.DB.QueryContext(ctx, query,
		utils.TsQuery(q.Text), q.Text, string(q.Product),
		q.Threshold, q.RankWeight, q.SimilarityWeight, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}
	defer rows.Close()

	var out []domain.PassageCandidate
	for rows.Next() {
		var c domain.PassageCandidate
		if err := scanChunk(rows, &c.DocumentChunk, &c.Relevance, &c.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// NearestChunks orders embedded chunks by cosine distance to the query.
// Chunks without a currency match any requested currency.
func (s *PostgresStore) NearestChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkHit, error) {
	query := `
		SELECT ` + chunkColumns + `, embedding <=> $1 AS distance
		FROM document_chunks
		WHERE embedding IS NOT NULL
			AND ($2 = '' OR product_code = $2)
			AND ($3 = '' OR currency IS NULL OR currency = $3)
		ORDER BY distance, ordinal, document_id
		LIMIT $4
	`
	rows, err := s.DB.QueryContext(ctx, query,
		pgvector.NewVector(q.Embedding), string(q.Product), string(q.Currency), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search nearest chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.ChunkHit
	for rows.Next() {
		var h domain.ChunkHit
		if err := scanChunk(rows, &h.DocumentChunk, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpsertChunks stores document fragments, replacing existing ones with the
// same (document_id, ordinal).
func (s *PostgresStore) UpsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO document_chunks (document_id, ordinal, section, content, product_code, currency, term_days, has_numbers, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id, ordinal) DO UPDATE SET
			section = EXCLUDED.section,
			content = EXCLUDED.content,
			product_code = EXCLUDED.product_code,
			currency = EXCLUDED.currency,
			term_days = EXCLUDED.term_days,
			has_numbers = EXCLUDED.has_numbers,
			embedding = EXCLUDED.embedding
	`
	for _, c := range chunks {
		var embedding any
		if len(c.Embedding) > 0 {
			embedding = pgvector.NewVector(c.Embedding)
		}
		if _, err := tx.ExecContext(ctx, query, c.DocumentID, c.Ordinal, nullString(c.Section), c.Content,
			nullString(string(c.Product)), nullString(string(c.Currency)), nullInt(c.TermDays),
			c.HasNumbers || utils.HasNumbers(c.Content), embedding); err != nil {
			return fmt.Errorf("failed to upsert chunk %s/%d: %w", c.DocumentID, c.Ordinal, err)
		}
	}
	return tx.Commit()
}

// DeleteDocument removes every chunk of a document and reports how many were
// deleted.
func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return res.RowsAffected()
}

func scanChunk(rows *sql.Rows, c *domain.DocumentChunk, extra ...any) error {
	var product, currency string
	var term sql.NullInt64
	dest := append([]any{&c.DocumentID, &c.Ordinal, &c.Section, &c.Content, &product, &currency, &term, &c.HasNumbers}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	c.Product = domain.ProductCode(product)
	c.Currency = domain.Currency(currency)
	c.TermDays = intPtr(term)
	return nil
}
