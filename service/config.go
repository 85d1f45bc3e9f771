package service

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration the daemon loads at startup.
// Environment overrides are applied in main.
type FileConfig struct {
	Listen string `yaml:"listen"`

	Backend struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"backend"`

	Browser struct {
		Remote           string        `yaml:"remote"` // ws:// URL of a running Chrome; empty launches one
		RecycleInterval  time.Duration `yaml:"recycle_interval"`
		ResourceBlocking bool          `yaml:"resource_blocking"`
	} `yaml:"browser"`

	Scrape struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Window   time.Duration `yaml:"window"`
		PostCap  int           `yaml:"post_cap"`
	} `yaml:"scrape"`

	PrefsPath string `yaml:"prefs_path"`
	MCPStdio  bool   `yaml:"mcp_stdio"`
	LogLevel  string `yaml:"log_level"`
}

// LoadConfig reads a YAML configuration file. A missing path returns
// the defaults.
func LoadConfig(path string) (*FileConfig, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("service: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("service: parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *FileConfig) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8713"
	}
	if c.Backend.URL == "" {
		c.Backend.URL = "http://127.0.0.1:8080"
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Scrape.CacheTTL <= 0 {
		c.Scrape.CacheTTL = 5 * time.Minute
	}
	if c.Scrape.Window <= 0 {
		c.Scrape.Window = 90 * 24 * time.Hour
	}
	if c.Scrape.PostCap <= 0 {
		c.Scrape.PostCap = 40
	}
	if c.PrefsPath == "" {
		c.PrefsPath = "feedpilot-prefs.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
