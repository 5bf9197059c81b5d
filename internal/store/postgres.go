package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres upserts records into a photos table as jsonb
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and creates the table if needed
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the photos table if needed
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS photos (
	id TEXT PRIMARY KEY,
	digest TEXT NOT NULL,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Set(ctx context.Context, entry Entry) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO photos (id, digest, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET digest = EXCLUDED.digest, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, entry.ID, entry.Digest, string(entry.Data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert photo %s: %w", entry.ID, err)
	}
	return nil
}

// Digest implements DigestReader
func (p *Postgres) Digest(ctx context.Context, id string) (string, bool, error) {
	var digest string
	err := p.pool.QueryRow(ctx, `SELECT digest FROM photos WHERE id=$1`, id).Scan(&digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select digest %s: %w", id, err)
	}
	return digest, true, nil
}

// List implements Lister
func (p *Postgres) List(ctx context.Context) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, digest, data::text FROM photos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			data string
		)
		if err := rows.Scan(&e.ID, &e.Digest, &data); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		e.Data = []byte(data)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
