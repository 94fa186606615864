package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"MarketFeed/internal/relay"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols []string `yaml:"symbols"`
	Primary struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"primary"`
	Secondary struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"secondary"`
	Relay struct {
		Intermediaries []relay.Intermediary `yaml:"intermediaries"`
	} `yaml:"relay"`
	Monitor struct {
		IntervalSeconds int `yaml:"interval_seconds"`
		MaxFailures     int `yaml:"max_failures"`
	} `yaml:"monitor"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKETFEED_SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Primary.BaseURL = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.Secondary.BaseURL = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Secondary.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MONITOR_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.IntervalSeconds = n
		}
	}
	if v := os.Getenv("CRON_SNAPSHOT"); v != "" {
		cfg.Schedule.SnapshotCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"^GSPC"}
	}
	if len(cfg.Relay.Intermediaries) == 0 {
		cfg.Relay.Intermediaries = relay.DefaultIntermediaries()
	}
	if cfg.Monitor.IntervalSeconds == 0 {
		cfg.Monitor.IntervalSeconds = 5
	}
	if cfg.Monitor.MaxFailures == 0 {
		cfg.Monitor.MaxFailures = 5
	}
	if cfg.Schedule.SnapshotCron == "" {
		// Weekdays after US market close.
		cfg.Schedule.SnapshotCron = "0 30 21 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketfeed.db"
	}

	return cfg, nil
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that all required fields are set. The secondary API
// key is deliberately not required: its absence only disables the
// fallback provider.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbols must not contain empty entries")
		}
	}
	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor.interval_seconds must be positive")
	}
	if c.Monitor.MaxFailures <= 0 {
		return fmt.Errorf("monitor.max_failures must be positive")
	}
	return nil
}
