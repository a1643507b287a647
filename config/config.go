// Package config loads granth settings from an optional TOML file layered
// over built-in defaults. Command-line flags override both (see cmd/granth).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sonnes/granth/answer"
	"github.com/sonnes/granth/core"
)

// Config is the complete granth configuration.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
}

// BackendConfig describes the answer service.
type BackendConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"` // zero means no timeout
	// RateLimit caps outbound questions per second. Zero disables it.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// ServerConfig describes the web UI server.
type ServerConfig struct {
	Addr          string   `toml:"addr"`
	SessionTTL    Duration `toml:"session_ttl"`
	SweepInterval Duration `toml:"sweep_interval"`
	// Redact lists the rule sets applied to exported transcripts: "secrets", "pii".
	Redact []string `toml:"redact"`
	// RedactPatterns adds rules by name, e.g. employee_id = "EMP-[0-9]{6}".
	RedactPatterns map[string]string `toml:"redact_patterns"`
	// RedactAllowlist holds patterns whose matches are never redacted.
	RedactAllowlist []string `toml:"redact_allowlist"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Title               string   `toml:"title"`
	SearchDepth         int      `toml:"search_depth"`
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	Pacing              Duration `toml:"pacing"`
}

// Duration is a time.Duration that decodes from strings like "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	s := core.DefaultSettings()
	return &Config{
		Backend: BackendConfig{
			URL:     answer.DefaultURL,
			Timeout: Duration{2 * time.Minute},
			Burst:   1,
		},
		Server: ServerConfig{
			Addr:          ":8501",
			SessionTTL:    Duration{30 * time.Minute},
			SweepInterval: Duration{time.Minute},
			Redact:        []string{"secrets", "pii"},
		},
		UI: UIConfig{
			Title:               "Knowledge Assistant",
			SearchDepth:         s.SearchDepth,
			ConfidenceThreshold: s.ConfidenceThreshold,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// Settings returns the initial sidebar settings.
func (c *Config) Settings() core.Settings {
	return core.Settings{
		SearchDepth:         c.UI.SearchDepth,
		ConfidenceThreshold: c.UI.ConfidenceThreshold,
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL))
	}
	if c.Backend.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must not be negative"))
	}
	if c.Backend.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("backend.rate_limit must not be negative"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.SessionTTL.Duration <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl must be positive"))
	}
	if c.Server.SweepInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("server.sweep_interval must be positive"))
	}
	for _, r := range c.Server.Redact {
		if r != "secrets" && r != "pii" {
			errs = append(errs, fmt.Errorf("server.redact: unknown rule set %q", r))
		}
	}
	for name, expr := range c.Server.RedactPatterns {
		if _, err := regexp.Compile(expr); err != nil {
			errs = append(errs, fmt.Errorf("server.redact_patterns.%s: %w", name, err))
		}
	}
	for _, expr := range c.Server.RedactAllowlist {
		if _, err := regexp.Compile(expr); err != nil {
			errs = append(errs, fmt.Errorf("server.redact_allowlist: %w", err))
		}
	}
	if err := c.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ui: %w", err))
	}
	if c.UI.Pacing.Duration < 0 {
		errs = append(errs, fmt.Errorf("ui.pacing must not be negative"))
	}

	return errors.Join(errs...)
}
