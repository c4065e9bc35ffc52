package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/pkg/config"
)

func TestOpenStorage_Memoria(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}

	s, err := OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, config.StorageDriverMemory, s.Driver)
	assert.NotNil(t, s.TxRunner)
	assert.NotNil(t, s.Accounts)
	assert.NotNil(t, s.Materials)
	assert.NotNil(t, s.Batches)
	assert.NotNil(t, s.Transactions)
}

func TestOpenStorage_DriverDesconocido(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	_, err := OpenStorage(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenCache_SinRedisDevuelveNil(t *testing.T) {
	c, closeFn, err := OpenCache(context.Background(), config.RedisConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)
	closeFn()
}

func TestOpenCache_ConMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	c, closeFn, err := OpenCache(context.Background(), config.RedisConfig{Addr: mr.Addr(), CacheTTL: time.Minute}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	require.NotNil(t, c)

	require.NoError(t, c.Bump(context.Background()))
	ver, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
}

func TestOpenCache_RedisInalcanzable(t *testing.T) {
	_, _, err := OpenCache(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestEngineOptions_SinCache(t *testing.T) {
	assert.Len(t, EngineOptions(nil, nil, zerolog.Nop()), 1)
}
