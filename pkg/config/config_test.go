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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_DefaultsAndRequired(t *testing.T) {
	path := writeConfig(t, `
list:
  id: "1234567890"
openai:
  api_key: "sk-test"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "1234567890", cfg.List.ID)
	assert.Equal(t, 50, cfg.List.MaxResults)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 15*time.Minute, cfg.Limits.PollInterval)
	assert.Equal(t, 180*time.Second, cfg.Limits.MinPostAge)
	assert.Equal(t, 60*time.Minute, cfg.Limits.MaxPostAge())
	assert.Equal(t, 30*time.Minute, cfg.Limits.PerAccountCooldown)
	assert.Equal(t, 500, cfg.Limits.PauseAfter)
	assert.Equal(t, 1000, cfg.Limits.StopAfter)
	assert.Equal(t, "replied_ids.txt", cfg.Storage.RepliedFile)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoadConfig_MissingListID(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: "sk-test"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list id is required")
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	path := writeConfig(t, `
list:
  id: "1234567890"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api key is required")
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
list:
  id: "42"
  max_results: 10
openai:
  api_key: "sk-test"
limits:
  poll_interval: 60s
  max_post_age_minutes: 120
  stop_after: 25
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.List.MaxResults)
	assert.Equal(t, time.Minute, cfg.Limits.PollInterval)
	assert.Equal(t, 2*time.Hour, cfg.Limits.MaxPostAge())
	assert.Equal(t, 25, cfg.Limits.StopAfter)
}
