package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"server"`

	Storage struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"storage"`

	Deck struct {
		DisplayLimit  int    `yaml:"display_limit"` // articles shown per feed
		Notifications bool   `yaml:"notifications"` // raise notifications for new articles
		WebhookURL    string `yaml:"webhook_url"`   // optional outgoing webhook endpoint
	} `yaml:"deck"`

	Fetch struct {
		Timeout          time.Duration `yaml:"timeout"`           // feed fetch
		EnrichTimeout    time.Duration `yaml:"enrich_timeout"`    // per-page metadata fetch
		DiscoveryTimeout time.Duration `yaml:"discovery_timeout"` // discovery page fetch
		Retries          int           `yaml:"retries"`
		UserAgent        string        `yaml:"user_agent"`
		MaxWorkers       int           `yaml:"max_workers"` // concurrent enrichments per feed
	} `yaml:"fetch"`
}

// Load reads configuration from a YAML file. A missing file is not an error:
// the returned config carries defaults only, so the app runs without any
// config at all.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		// expand environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}

	if c.Deck.DisplayLimit == 0 {
		c.Deck.DisplayLimit = 5
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.EnrichTimeout == 0 {
		c.Fetch.EnrichTimeout = 5 * time.Second
	}
	if c.Fetch.DiscoveryTimeout == 0 {
		c.Fetch.DiscoveryTimeout = 7 * time.Second
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = 3
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (compatible; FeedDeck/1.0)"
	}
	if c.Fetch.MaxWorkers == 0 {
		c.Fetch.MaxWorkers = 5
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Deck.DisplayLimit < 1 || cfg.Deck.DisplayLimit > 50 {
		return fmt.Errorf("deck.display_limit must be between 1 and 50")
	}
	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch.timeout must be at least 1 second")
	}
	if cfg.Fetch.EnrichTimeout < time.Second {
		return fmt.Errorf("fetch.enrich_timeout must be at least 1 second")
	}
	if cfg.Fetch.Retries < 1 {
		return fmt.Errorf("fetch.retries must be at least 1")
	}
	if cfg.Fetch.MaxWorkers < 1 {
		return fmt.Errorf("fetch.max_workers must be at least 1")
	}
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1 second")
	}
	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
