package config

import "time"

// Config holds runtime settings for the photovault CLI.
//
// Fields:
//   - APIEndpoint: base URL of the backend HTTP API.
//   - DatabasePath: path of the local SQLite database file.
//   - CachePath: path of the preview blob cache file.
//   - PageSize: page size for the file change feed.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	APIEndpoint    string
	DatabasePath   string
	CachePath      string
	PageSize       int
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIEndpoint = "http://127.0.0.1:8080"
	c.DatabasePath = "photovault.db"
	c.CachePath = "previews.db"
	c.PageSize = 100
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
