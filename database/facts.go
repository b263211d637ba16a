package database

import (
	"context"
	"database/sql"
	"fmt"

	"sales-assistant/domain"
)

func (s *PostgresStore) InsertFact(ctx context.Context, f domain.ProductFact) (int64, error) {
	query := `
		INSERT INTO product_facts (product_code, channel, currency, fact_key, term_days,
			amount_min, amount_max, amount_max_inclusive, value_numeric, value_text,
			valid_from, valid_to, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		string(f.Product), nullString(string(f.Channel)), nullString(string(f.Currency)), f.FactKey,
		nullInt(f.TermDays), nullFloat(f.Amount.Min), nullFloat(f.Amount.Max), f.Amount.MaxInclusive,
		nullFloat(f.NumericValue), nullString(f.TextValue),
		nullTime(f.Validity.From), nullTime(f.Validity.To), nullString(f.Source), f.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, writeError(err, "failed to insert product fact")
	}
	return id, nil
}

// ListFacts returns every fact for a product; tier selection happens in the
// resolver.
func (s *PostgresStore) ListFacts(ctx context.Context, product domain.ProductCode) ([]domain.ProductFact, error) {
	query := `
		SELECT id, product_code, COALESCE(channel, ''), COALESCE(currency, ''), fact_key, term_days,
			amount_min, amount_max, amount_max_inclusive, value_numeric, COALESCE(value_text, ''),
			valid_from, valid_to, COALESCE(source, ''), created_at
		FROM product_facts
		WHERE product_code = $1
		ORDER BY id
	`
	rows, err := s.DB.QueryContext(ctx, query, string(product))
	if err != nil {
		return nil, fmt.Errorf("failed to list product facts: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductFact
	for rows.Next() {
		var (
			f                  domain.ProductFact
			productCode        string
			channel, currency  string
			term               sql.NullInt64
			amountMin, amountMax, numeric sql.NullFloat64
			validFrom, validTo sql.NullTime
		)
		if err := rows.Scan(&f.ID, &productCode, &channel, &currency, &f.FactKey, &term,
			&amountMin, &amountMax, &f.Amount.MaxInclusive, &numeric, &f.TextValue,
			&validFrom, &validTo, &f.Source, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product fact: %w", err)
		}
		f.Product = domain.ProductCode(productCode)
		f.Channel = domain.Channel(channel)
		f.Currency = domain.Currency(currency)
		f.TermDays = intPtr(term)
		f.Amount.Min = floatPtr(amountMin)
		f.Amount.Max = floatPtr(amountMax)
		f.NumericValue = floatPtr(numeric)
		f.Validity.From = timePtr(validFrom)
		f.Validity.To = timePtr(validTo)
		out = append(out, f)
	}
	return out, rows.Err()
}
