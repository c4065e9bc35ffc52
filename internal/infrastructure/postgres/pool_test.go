package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/pkg/config"
)

func TestNewPoolConfig_Limites(t *testing.T) {
	cfg := config.DBConfig{Host: "127.0.0.1", Port: 5432, User: "postgres", DBName: "trazabilidad", SSLMode: "disable"}

	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, defaultMaxConns, pc.MaxConns)
	assert.EqualValues(t, defaultMinConns, pc.MinConns)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)

	cfg.MaxConns = 1
	pc, err = newPoolConfig(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pc.MaxConns)
	assert.EqualValues(t, 1, pc.MinConns)
}

func TestNewPoolConfig_DatabaseURL(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@127.0.0.1:6543/ledger?sslmode=disable"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", pc.ConnConfig.Host)
	assert.EqualValues(t, 6543, pc.ConnConfig.Port)
	assert.Equal(t, "ledger", pc.ConnConfig.Database)
}

func TestResolveIPv4_Literal(t *testing.T) {
	ip, err := resolveIPv4("10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip)

	_, err = resolveIPv4("::1")
	assert.Error(t, err)
}

func TestWithIPv4Host_URLInvalidaSeConserva(t *testing.T) {
	assert.Equal(t, "::no-es-url", withIPv4Host("::no-es-url"))
}
