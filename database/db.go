package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "sales-assistant/errors"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

type PostgresStore struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Successfully connected to the database")
	return &PostgresStore{DB: db, logger: logger}, nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// EnsureSchema creates the required extensions, tables and indexes if they
// do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS employees (
            id BIGINT PRIMARY KEY,
            name TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS meetings (
            id UUID PRIMARY KEY,
            employee_id BIGINT NOT NULL REFERENCES employees(id),
            product_code TEXT NOT NULL,
            for_date DATE NOT NULL,
            request_id TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_meetings_request ON meetings(request_id) WHERE request_id IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS attempts (
            id UUID PRIMARY KEY,
            employee_id BIGINT NOT NULL REFERENCES employees(id),
            product_code TEXT NOT NULL,
            attempt_count INTEGER NOT NULL CHECK (attempt_count >= 0),
            for_date DATE NOT NULL,
            meeting_id UUID REFERENCES meetings(id),
            request_id TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_employee_date ON attempts(employee_id, for_date)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_date ON attempts(for_date)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_attempts_request ON attempts(request_id, product_code) WHERE request_id IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS monthly_plans (
            employee_id BIGINT NOT NULL REFERENCES employees(id),
            year INTEGER NOT NULL,
            month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
            target DOUBLE PRECISION NOT NULL CHECK (target >= 0),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (employee_id, year, month)
        )`,
		`CREATE TABLE IF NOT EXISTS product_facts (
            id BIGSERIAL PRIMARY KEY,
            product_code TEXT NOT NULL,
            channel TEXT,
            currency TEXT,
            fact_key TEXT NOT NULL,
            term_days INTEGER,
            amount_min DOUBLE PRECISION,
            amount_max DOUBLE PRECISION,
            amount_max_inclusive BOOLEAN NOT NULL DEFAULT FALSE,
            value_numeric DOUBLE PRECISION,
            value_text TEXT,
            valid_from DATE,
            valid_to DATE,
            source TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (valid_from IS NULL OR valid_to IS NULL OR valid_from <= valid_to)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_product_facts_product ON product_facts(product_code, fact_key)`,
		`CREATE TABLE IF NOT EXISTS document_chunks (
            document_id TEXT NOT NULL,
            ordinal INTEGER NOT NULL,
            section TEXT,
            content TEXT NOT NULL,
            product_code TEXT,
            currency TEXT,
            term_days INTEGER,
            has_numbers BOOLEAN NOT NULL DEFAULT FALSE,
            embedding vector,
            tsv tsvector GENERATED ALWAYS AS (
                setweight(to_tsvector('simple', coalesce(section, '')), 'A') ||
                setweight(to_tsvector('simple', content), 'B')
            ) STORED,
            PRIMARY KEY (document_id, ordinal)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_tsv ON document_chunks USING GIN (tsv)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_trgm ON document_chunks USING GIN (content gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_product ON document_chunks(product_code)`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
            id UUID PRIMARY KEY,
            employee_id BIGINT NOT NULL REFERENCES employees(id),
            role TEXT NOT NULL,
            content TEXT NOT NULL,
            off_topic BOOLEAN NOT NULL DEFAULT FALSE,
            auto_generated BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turns_employee ON conversation_turns(employee_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS notes (
            id UUID PRIMARY KEY,
            employee_id BIGINT NOT NULL REFERENCES employees(id),
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_notes_employee ON notes(employee_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
            id UUID PRIMARY KEY,
            employee_id BIGINT,
            action TEXT NOT NULL,
            payload JSONB DEFAULT '{}'::jsonb,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time.UTC()
	return &v
}

// writeError wraps a failed write, marking constraint violations (unknown
// employee, negative count) as integrity errors.
func writeError(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23514", "23502":
			return fmt.Errorf("%s: %w: %s", message, apperrors.ErrIntegrity, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", message, err)
}
