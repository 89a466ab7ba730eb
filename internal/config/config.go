package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/flagx"
)

// Config holds runtime settings for kidsync.
type Config struct {
	BaseURL   string
	MissState string

	DatabaseDriver string
	DatabaseDSN    string

	PageSize     int
	Workers      int
	FetchTimeout time.Duration

	ResyncParallelism int
	ResyncRetries     int

	LogLevel string
	LogFile  string

	// ConfigFile is the JSON file the values were read from, if any.
	ConfigFile string
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://api.missingkids.org/missingkids/servlet/"
	c.MissState = "CA"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:kidsync.db?_pragma=busy_timeout(5000)"
	c.PageSize = 20
	c.Workers = 4
	c.FetchTimeout = 30 * time.Second
	c.ResyncParallelism = 4
	c.ResyncRetries = 2
	c.LogLevel = "info"
	c.LogFile = ""
}

// Load applies defaults and then overlays the JSON file named by -c/--config
// in args. Flags are applied later by the CLI through BindFlags, using the
// values loaded here as their defaults.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigPath(args); path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}
	return cfg, nil
}

// Validate reports settings that cannot work at all.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database driver %q: must be sqlite or postgres", c.DatabaseDriver)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base url must not be empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.ResyncParallelism <= 0 {
		return fmt.Errorf("resync parallelism must be positive, got %d", c.ResyncParallelism)
	}
	if c.ResyncRetries < 0 {
		return fmt.Errorf("resync retries must not be negative, got %d", c.ResyncRetries)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.FetchTimeout)
	}
	return nil
}
