package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/bays")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FACILITY_TIMEZONE", "UTC")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.NotEmpty(t, cfg.FeeSchedule.TierAllowanceMinutes)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/bays")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"REFRESH_INTERVAL", "soon"},
		{"SHUTDOWN_TIMEOUT", "10"},
		{"RUN_MIGRATIONS", "maybe"},
		{"FACILITY_TIMEZONE", "Mars/Olympus_Mons"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoadFeeSchedule(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o600))
	t.Setenv("FEE_SCHEDULE_PATH", path)

	_, err := Load()
	assert.ErrorContains(t, err, "FEE_SCHEDULE_PATH")
}
