/**
 * @description
 * Postgres-backed implementation of the KV contract. Documents live in a
 * single `ledger_documents` table with a jsonb payload, created at boot; the
 * service assumes no migration framework.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pooling.
 * - github.com/cenkalti/backoff/v4: bounded exponential retry on first connect.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS ledger_documents (
    key        text PRIMARY KEY,
    doc        jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
)`

// PostgresKV stores each document as one row in the ledger_documents table.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// ConnectPostgresKV dials the database with bounded exponential retry so a
// slow-starting database does not kill the service at boot, then ensures the
// documents table exists.
func ConnectPostgresKV(ctx context.Context, databaseURL string, maxWait time.Duration) (*PostgresKV, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgreskv: parse database url: %w", err)
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	operation := func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("postgreskv: connect: %w", err)
	}

	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgreskv: ensure documents table: %w", err)
	}
	return &PostgresKV{pool: pool}, nil
}

// Get reads the document stored under key, or ErrKeyNotFound.
func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM ledger_documents WHERE key = $1`, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgreskv: get %s: %w", key, err)
	}
	return doc, nil
}

// Put upserts the document under key.
func (p *PostgresKV) Put(ctx context.Context, key string, doc []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO ledger_documents (key, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		key, doc)
	if err != nil {
		return fmt.Errorf("postgreskv: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the document under key. Deleting an absent key is not an error.
func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM ledger_documents WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgreskv: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *PostgresKV) Close() {
	p.pool.Close()
}
