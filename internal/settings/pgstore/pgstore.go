// Package pgstore guarda las preferencias en Postgres vía pgxpool.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS coral_prefs (
	name       TEXT PRIMARY KEY,
	val        TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsert = `INSERT INTO coral_prefs (name, val, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET val = EXCLUDED.val, updated_at = now()`

type Store struct{ pool *pgxpool.Pool }

// Options ajusta el pool. Cero = default de pgxpool.
type Options struct {
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

// New abre el pool, hace ping y asegura la tabla.
func New(ctx context.Context, dsn string, o Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	if o.MaxConns > 0 {
		cfg.MaxConns = o.MaxConns
	} else {
		cfg.MaxConns = 4
	}
	if o.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = o.ConnMaxLifetime
		cfg.MaxConnIdleTime = o.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close cierra el pool (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, val FROM coral_prefs`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: load: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("pgstore: scan: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Save manda todos los upserts en un batch dentro de una transacción.
func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for k, v := range values {
			b.Queue(upsert, k, v)
		}
		br := tx.SendBatch(ctx, b)
		for range values {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("pgstore: upsert: %w", err)
			}
		}
		return br.Close()
	})
}

// Stat devuelve un snapshot del pool (nil si no está inicializado).
func (s *Store) Stat() *pgxpool.Stat {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}
