package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*PostgresStore)(nil)

const createTableSQL = `CREATE TABLE IF NOT EXISTS kv_entries (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// querier is the subset of *pgxpool.Pool the store needs
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore keeps entries in a single kv_entries table
type PostgresStore struct {
	db    querier
	close func()
}

// NewPool opens and pings a pgx connection pool
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresStore wraps pool and makes sure the table exists
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	return newPostgresStore(ctx, pool, pool.Close)
}

func newPostgresStore(ctx context.Context, db querier, closeFn func()) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create kv_entries table: %w", err)
	}
	return &PostgresStore{db: db, close: closeFn}, nil
}

func (s *PostgresStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := validateNames(namespace, key); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := validateNames(namespace, key); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO kv_entries (namespace, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, namespace, key string) error {
	if err := validateNames(namespace, key); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`, namespace, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
