// Package snapshot persists the baseline Index between runs.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/loi-watcher/internal/config"
	"github.com/jonathan/loi-watcher/internal/schemas"
	"github.com/jonathan/loi-watcher/internal/types"
)

// Store loads and saves the full snapshot at a fixed key. Load returns an
// empty Index when nothing has been stored yet. Save always replaces the
// whole snapshot.
type Store interface {
	Load(ctx context.Context) (types.Index, error)
	Save(ctx context.Context, idx types.Index) error
	Close() error
}

// Open returns the store selected by cfg.Driver. The redis client is only
// required for the redis driver and may be nil otherwise.
func Open(ctx context.Context, cfg config.StorageConfig, rdb *redis.Client) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return NewFileStore(cfg.Path), nil
	case config.DriverPostgres:
		store, err := ConnectPostgres(ctx, cfg.DatabaseURL, cfg.Key)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis snapshot store requires a redis client")
		}
		return NewRedisStore(rdb, cfg.Key), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Decode validates raw snapshot bytes against the snapshot schema and decodes them.
func Decode(source string, data []byte) (types.Index, error) {
	if err := schemas.ValidateSnapshot(data); err != nil {
		return nil, &CorruptSnapshotError{Source: source, Cause: err}
	}

	idx := types.NewIndex()
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &CorruptSnapshotError{Source: source, Cause: err}
	}
	return idx, nil
}

// Encode serializes a snapshot. A nil index is stored as an empty object.
func Encode(idx types.Index) ([]byte, error) {
	if idx == nil {
		idx = types.NewIndex()
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}
