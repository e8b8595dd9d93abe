// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CAMPDESK_"

// Config holds all campdesk configuration.
type Config struct {
	Backend Backend `yaml:"backend"`
	UI      UI      `yaml:"ui"`
	Log     Log     `yaml:"log" envPrefix:"LOG_"`
	Session Session `yaml:"session" envPrefix:"SESSION_"`
}

// Backend holds how to reach the campaign API.
type Backend struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Breaker Breaker       `yaml:"breaker"`
}

// Breaker holds circuit breaker thresholds.
type Breaker struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// UI holds interactive dashboard settings.
type UI struct {
	SuggestMinLength int           `yaml:"suggest_min_length"`
	SuggestHideDelay time.Duration `yaml:"suggest_hide_delay"`
	KeywordGuard     time.Duration `yaml:"keyword_guard"`
	StartView        string        `yaml:"start_view"`
}

// Log holds logger settings. An empty File disables logging.
type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
	File  string `yaml:"file" env:"FILE"`
}

// Session holds where the signed-in session is stored. Empty uses the
// default location.
type Session struct {
	File string `yaml:"file" env:"FILE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: Backend{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
			Breaker: Breaker{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
		UI: UI{
			SuggestMinLength: 2,
			SuggestHideDelay: 100 * time.Millisecond,
			KeywordGuard:     300 * time.Millisecond,
			StartView:        "home",
		},
		Log: Log{
			Level: "info",
			File:  defaultLogFile(),
		},
	}
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "campdesk", "campdesk.log")
}

// DefaultPaths returns the config layers in increasing priority: the
// user config file, then .campdesk.yaml in the working directory.
func DefaultPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "campdesk", "config.yaml"))
	}
	return append(paths, ".campdesk.yaml")
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("config: backend.timeout must be positive, got %v", c.Backend.Timeout)
	}
	if c.Backend.Breaker.OpenTimeout <= 0 {
		return fmt.Errorf("config: backend.breaker.open_timeout must be positive, got %v", c.Backend.Breaker.OpenTimeout)
	}
	if c.UI.SuggestMinLength < 1 {
		return fmt.Errorf("config: ui.suggest_min_length must be at least 1, got %d", c.UI.SuggestMinLength)
	}
	if c.UI.SuggestHideDelay < 0 {
		return fmt.Errorf("config: ui.suggest_hide_delay must be non-negative, got %v", c.UI.SuggestHideDelay)
	}
	if c.UI.KeywordGuard < 0 {
		return fmt.Errorf("config: ui.keyword_guard must be non-negative, got %v", c.UI.KeywordGuard)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process
// environment without overriding variables already set. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: CAMPDESK_BASE_URL, CAMPDESK_TIMEOUT,
// CAMPDESK_LOG_LEVEL, CAMPDESK_LOG_FILE, CAMPDESK_SESSION_FILE.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Backend *rawBackend `yaml:"backend"`
	UI      *rawUI      `yaml:"ui"`
	Log     *rawLog     `yaml:"log"`
	Session *rawSession `yaml:"session"`
}

type rawBackend struct {
	BaseURL *string        `yaml:"base_url"`
	Timeout *time.Duration `yaml:"timeout"`
	Breaker *rawBreaker    `yaml:"breaker"`
}

type rawBreaker struct {
	MaxFailures *uint32        `yaml:"max_failures"`
	OpenTimeout *time.Duration `yaml:"open_timeout"`
}

type rawUI struct {
	SuggestMinLength *int           `yaml:"suggest_min_length"`
	SuggestHideDelay *time.Duration `yaml:"suggest_hide_delay"`
	KeywordGuard     *time.Duration `yaml:"keyword_guard"`
	StartView        *string        `yaml:"start_view"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type rawSession struct {
	File *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if b := layer.Backend; b != nil {
		setIf(&c.Backend.BaseURL, b.BaseURL)
		setIf(&c.Backend.Timeout, b.Timeout)
		if br := b.Breaker; br != nil {
			setIf(&c.Backend.Breaker.MaxFailures, br.MaxFailures)
			setIf(&c.Backend.Breaker.OpenTimeout, br.OpenTimeout)
		}
	}
	if ui := layer.UI; ui != nil {
		setIf(&c.UI.SuggestMinLength, ui.SuggestMinLength)
		setIf(&c.UI.SuggestHideDelay, ui.SuggestHideDelay)
		setIf(&c.UI.KeywordGuard, ui.KeywordGuard)
		setIf(&c.UI.StartView, ui.StartView)
	}
	if l := layer.Log; l != nil {
		setIf(&c.Log.Level, l.Level)
		setIf(&c.Log.File, l.File)
	}
	if s := layer.Session; s != nil {
		setIf(&c.Session.File, s.File)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
