package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_ADDRESS", ":9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "@every 1h", cfg.Jobs.EnrollmentSweep)
	assert.True(t, cfg.S3.UseSSL)
}

func TestLoadConfig_FileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  env: prod
database:
  name: academy_test
jwt:
  expiration: 30m
calendar:
  location: Europe/London
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Server.Env)
	assert.Equal(t, "academy_test", cfg.Database.Name)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, "from-dotenv", cfg.JWT.Secret)

	loc, err := cfg.Calendar.LoadLocation()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Secret")
	})

	t.Run("resend key without sender", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("NOTIFY_RESEND_API_KEY", "re_123")
		_, err := LoadConfig(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "From")
	})

	t.Run("bad calendar location", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("CALENDAR_LOCATION", "Mars/Olympus_Mons")
		_, err := LoadConfig(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "calendar location")
	})
}
