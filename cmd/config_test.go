package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"waterdist/internal/core/application/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HTTP_JWT_SECRET", "secret")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, access.PolicyRoleBased, cfg.Access.Policy)
	assert.Equal(t, 5*time.Second, cfg.Assignment.GeoTimeout)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
	assert.Equal(t, time.Minute, cfg.Outbox.Lease)
	assert.Equal(t, 24*time.Hour, cfg.Geo.CacheTTL)
	assert.False(t, cfg.Queue.Enabled)
	assert.False(t, cfg.Mail.Enabled)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("HTTP_JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ACCESS_POLICY", access.PolicyOwnerOnly)
	t.Setenv("OUTBOX_RETRY_MAX", "30m")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, access.PolicyOwnerOnly, cfg.Access.Policy)
	assert.Equal(t, 30*time.Minute, cfg.Outbox.RetryMax)
}

func TestLoadConfig_FileAndFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 7000
  jwt_secret: from-file
outbox:
  batch_size: 10
`), 0o600))

	cfg, err := LoadConfig([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, "from-file", cfg.HTTP.JWTSecret)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)

	cfg, err = LoadConfig([]string{"-c", path, "-p", "7100"})
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.HTTP.Port)
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("HTTP_JWT_SECRET", "")

	_, err := LoadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.jwt_secret")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	_, err := LoadConfig([]string{"--nope"})
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{}
	valid.HTTP.Port = 8080
	valid.HTTP.JWTSecret = "secret"
	valid.Outbox.BatchSize = 1
	valid.Access.Policy = access.PolicyAllAccess
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"batch size", func(c *Config) { c.Outbox.BatchSize = 0 }, "outbox.batch_size"},
		{"policy", func(c *Config) { c.Access.Policy = "everyone" }, "everyone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
