// Package postgres implements a docstore.Store on a single-row JSONB
// document table, for deployments that self-host instead of using the
// remote bin service.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studydeck/studydeck/internal/domain/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS dashboard_documents (
    id         INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Store persists the whole document as one JSONB row.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection from a database URL and ensures the
// document table exists.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database url: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 5
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing pool without running migrations.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Fetch implements docstore.Store.
func (s *Store) Fetch(ctx context.Context) (record.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM dashboard_documents WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch document: %w", err)
	}

	var doc record.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("postgres: parse document: %w", err)
	}
	if doc == nil {
		doc = record.Document{}
	}
	return doc, nil
}

// Replace implements docstore.Store.
func (s *Store) Replace(ctx context.Context, doc record.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("postgres: marshal document: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO dashboard_documents (id, document, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`, raw)
	if err != nil {
		return fmt.Errorf("postgres: replace document: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
