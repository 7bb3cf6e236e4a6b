package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		content := `
server:
  listen: ":9090"
  timeout: 45s
storage:
  data_dir: /tmp/feeddeck-data
deck:
  display_limit: 10
  notifications: true
  webhook_url: https://hooks.example.com/feeddeck
fetch:
  timeout: 15s
  enrich_timeout: 3s
  discovery_timeout: 8s
  retries: 5
  user_agent: "TestAgent/1.0"
  max_workers: 8
`
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "/tmp/feeddeck-data", cfg.Storage.DataDir)
		assert.Equal(t, 10, cfg.Deck.DisplayLimit)
		assert.True(t, cfg.Deck.Notifications)
		assert.Equal(t, "https://hooks.example.com/feeddeck", cfg.Deck.WebhookURL)
		assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 3*time.Second, cfg.Fetch.EnrichTimeout)
		assert.Equal(t, 8*time.Second, cfg.Fetch.DiscoveryTimeout)
		assert.Equal(t, 5, cfg.Fetch.Retries)
		assert.Equal(t, "TestAgent/1.0", cfg.Fetch.UserAgent)
		assert.Equal(t, 8, cfg.Fetch.MaxWorkers)
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "data", cfg.Storage.DataDir)
		assert.Equal(t, 5, cfg.Deck.DisplayLimit)
		assert.False(t, cfg.Deck.Notifications)
		assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 5*time.Second, cfg.Fetch.EnrichTimeout)
		assert.Equal(t, 7*time.Second, cfg.Fetch.DiscoveryTimeout)
		assert.Equal(t, 3, cfg.Fetch.Retries)
		assert.Equal(t, "Mozilla/5.0 (compatible; FeedDeck/1.0)", cfg.Fetch.UserAgent)
		assert.Equal(t, 5, cfg.Fetch.MaxWorkers)
	})

	t.Run("partial config keeps defaults for the rest", func(t *testing.T) {
		content := `
server:
  listen: ":3000"
`
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":3000", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 5, cfg.Deck.DisplayLimit)
	})

	t.Run("environment variables expanded", func(t *testing.T) {
		t.Setenv("TEST_DATA_DIR", "/var/lib/feeddeck")
		content := `
storage:
  data_dir: ${TEST_DATA_DIR}
`
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/feeddeck", cfg.Storage.DataDir)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"display limit too high", "deck:\n  display_limit: 100\n"},
			{"display limit negative", "deck:\n  display_limit: -1\n"},
			{"fetch timeout too small", "fetch:\n  timeout: 100ms\n"},
			{"enrich timeout too small", "fetch:\n  enrich_timeout: 500ms\n"},
			{"negative retries", "fetch:\n  retries: -2\n"},
			{"negative workers", "fetch:\n  max_workers: -1\n"},
			{"server timeout too small", "server:\n  timeout: 10ms\n"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.yml")
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
				_, err := Load(path)
				assert.Error(t, err)
			})
		}
	})
}

func TestGetServerConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":8080", listen)
	assert.Equal(t, 30*time.Second, timeout)
}
