package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/loi-watcher/internal/types"
)

// PostgresStore keeps snapshots in a JSONB column keyed by name.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL, key string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, key: key}, nil
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS loi_snapshots (
			key        TEXT PRIMARY KEY,
			content    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create loi_snapshots: %w", err)
	}
	return nil
}

// Load returns the stored snapshot or an empty Index if the key has no row.
func (s *PostgresStore) Load(ctx context.Context) (types.Index, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM loi_snapshots WHERE key = $1`,
		s.key,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", s.key, err)
	}
	return Decode("postgres:"+s.key, content)
}

// Save replaces the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, idx types.Index) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO loi_snapshots (key, content)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET content = $2, updated_at = NOW()`,
		s.key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", s.key, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
