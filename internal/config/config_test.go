package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir keeps godotenv from picking up a developer's .env.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := LoadServerConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 90*time.Second, cfg.StaleAfter)
	assert.Equal(t, 15*time.Second, cfg.OfferTimeout)
	assert.Equal(t, 5000.0, cfg.MaxDistanceM)
	assert.True(t, cfg.PrioritizeProximity)
	assert.True(t, cfg.PrioritizeRating)
	assert.Zero(t, cfg.MaxAttempts)
	assert.True(t, cfg.AssignmentEnabled)
	assert.Equal(t, "rider-locations", cfg.KafkaLocationTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadServerConfig_FromEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("DISPATCH_OFFER_TIMEOUT", "20s")
	t.Setenv("DISPATCH_PRIORITIZE_RATING", "false")
	t.Setenv("DISPATCH_MAX_ATTEMPTS", "4")
	t.Setenv("ADMIN_API_KEYS", "a,b")
	t.Setenv("MIGRATE", "TRUE")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ASSIGNMENT_ENABLED", "false")

	cfg, err := LoadServerConfig()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 20*time.Second, cfg.OfferTimeout)
	assert.False(t, cfg.PrioritizeRating)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, []string{"a", "b"}, cfg.AdminAPIKeys)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.AssignmentEnabled)
}

func TestLoadServerConfig_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DISPATCH_STALE_AFTER=2m\n"), 0o600))
	t.Setenv("DISPATCH_STALE_AFTER", "")
	os.Unsetenv("DISPATCH_STALE_AFTER")

	cfg, err := LoadServerConfig()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.StaleAfter)
	os.Unsetenv("DISPATCH_STALE_AFTER")
}

func TestLoadServerConfig_CollectsErrors(t *testing.T) {
	inTempDir(t)
	t.Setenv("DISPATCH_STALE_AFTER", "soon")
	t.Setenv("DISPATCH_MAX_DISTANCE_M", "-1")
	t.Setenv("DISPATCH_PRIORITIZE_PROXIMITY", "maybe")

	_, err := LoadServerConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid DISPATCH_STALE_AFTER")
	assert.Contains(t, err.Error(), "DISPATCH_MAX_DISTANCE_M must be > 0")
	assert.Contains(t, err.Error(), "invalid DISPATCH_PRIORITIZE_PROXIMITY")
}
