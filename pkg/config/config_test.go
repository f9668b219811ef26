package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("pos-service")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 7, cfg.Reconciler.DefaultAlertDays)
	assert.Equal(t, 50, cfg.Reconciler.MarkAllReadCap)
	assert.False(t, cfg.Reconciler.Enabled)
	assert.Empty(t, cfg.Redis.Addr, "cache is disabled unless configured")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SHOPLITE_SERVER_PORT", "9090")
	t.Setenv("SHOPLITE_LEDGER_MAX_RETRIES", "5")
	t.Setenv("SHOPLITE_RECONCILER_DEFAULT_ALERT_DAYS", "14")

	cfg, err := Load("pos-service")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 14, cfg.Reconciler.DefaultAlertDays)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		Database: "shoplite_pos", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=shoplite_pos sslmode=disable",
		cfg.DSN(),
	)
}

func TestDatabaseConfig_ValidateProduction(t *testing.T) {
	cfg := DatabaseConfig{Host: "localhost"}
	require.Error(t, cfg.Validate(EnvProduction))
	require.NoError(t, cfg.Validate(EnvDevelopment))

	cfg.Host = "db.internal"
	require.NoError(t, cfg.Validate(EnvProduction))
}
