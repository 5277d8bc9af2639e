package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig points at the reservation sheet: a local CSV path or a
// remote CSV export URL. Path wins when both are set.
type SourceConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and report.
	Listen string `yaml:"listen" json:"listen"`

	// Year is the planning year; recurrence expansion is bounded by
	// December 31 of this year.
	Year int `yaml:"year" json:"year"`

	// Source locates the reservation sheet.
	Source SourceConfig `yaml:"source" json:"source"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") used
	// in serve mode to re-ingest and re-analyze periodically.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir is where remote sheet fetches are cached on disk.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Year:        time.Now().UTC().Year(),
		RefreshCron: "*/15 * * * *",
		CacheDir:    "./var/sheet-cache",
	}
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Year <= 0 {
		c.Year = time.Now().UTC().Year()
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/sheet-cache"
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600)
// and returned, so a first run leaves an editable file behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".roomcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
