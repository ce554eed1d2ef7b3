package redisconn

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/loi-watcher/internal/config"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", mustGet(t, mr, "k"))
}

func TestConnect_EmptyAddress(t *testing.T) {
	_, err := Connect(context.Background(), config.RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), config.RedisConfig{Address: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
