package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "planweave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database_url: file:///var/lib/planweave
model:
  api_key: test-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "gochannel", cfg.EventBus)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, "test-key", cfg.Model.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
port: 8088
database_url: postgres://localhost/planweave
event_bus: kafka
redis_url: redis://localhost:6379/0
cache_ttl: 1h
model:
  api_key: test-key
  name: gpt-4o-mini
  temperature: 0.2
catalog:
  source: ./catalog.json
  refresh_schedule: "0 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, "kafka", cfg.EventBus)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.InDelta(t, 0.2, cfg.Model.Temperature, 0.001)
	assert.Equal(t, "./catalog.json", cfg.Catalog.Source)
	assert.Equal(t, "0 * * * *", cfg.Catalog.RefreshSchedule)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.DatabaseURL = "file://./data"
	require.Error(t, cfg.Validate())

	cfg.Model.APIKey = "test-key"
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
