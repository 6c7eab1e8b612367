package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baxromumarov/job-board/internal/httpx"
	"github.com/baxromumarov/job-board/internal/source"
	"github.com/baxromumarov/job-board/internal/urlutil"
)

//go:embed default.yaml
var defaultYAML []byte

type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	RespectRobots bool          `yaml:"respect_robots"`
}

// SourceEntry is one roster line. Exactly one of Lever, Greenhouse or URL
// must be set.
type SourceEntry struct {
	Name       string `yaml:"name"`
	Lever      string `yaml:"lever,omitempty"`
	Greenhouse string `yaml:"greenhouse,omitempty"`
	URL        string `yaml:"url,omitempty"`
}

type Config struct {
	Port              string        `yaml:"port"`
	DatabaseURL       string        `yaml:"database_url"`
	RunRetention      time.Duration `yaml:"run_retention"`
	LogLevel          string        `yaml:"log_level"`
	Regions           []string      `yaml:"regions"`
	Concurrency       int           `yaml:"concurrency"`
	LeverBaseURL      string        `yaml:"lever_base_url"`
	GreenhouseBaseURL string        `yaml:"greenhouse_base_url"`
	Fetch             FetchConfig   `yaml:"fetch"`
	Sources           []SourceEntry `yaml:"sources"`
}

// Default returns the built-in configuration, roster included.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse default config: %w", err)
	}
	return &cfg, nil
}

// Load reads the built-in defaults, overlays the YAML file at path when one
// is given, then applies environment overrides. A file without a sources
// list keeps the built-in roster.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("FETCH_TIMEOUT %q: must be a positive duration", v)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("TARGET_REGIONS"); v != "" {
		var regions []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				regions = append(regions, r)
			}
		}
		c.Regions = regions
	}
	return nil
}

// SlogLevel maps LogLevel onto slog, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *Config) HTTPOptions() httpx.Options {
	return httpx.Options{
		UserAgent:     c.Fetch.UserAgent,
		Timeout:       c.Fetch.Timeout,
		RatePerSecond: c.Fetch.RatePerSecond,
		Burst:         c.Fetch.Burst,
		RespectRobots: c.Fetch.RespectRobots,
	}
}

// Descriptor converts the tagged entry into a registry descriptor.
func (e SourceEntry) Descriptor() (source.Descriptor, error) {
	d := source.Descriptor{Name: e.Name}
	set := 0
	if e.Lever != "" {
		d.Kind, d.Locator = source.KindLever, e.Lever
		set++
	}
	if e.Greenhouse != "" {
		d.Kind, d.Locator = source.KindGreenhouse, e.Greenhouse
		set++
	}
	if e.URL != "" {
		d.Kind, d.Locator = source.KindPage, e.URL
		set++
	}
	if set != 1 {
		return source.Descriptor{}, fmt.Errorf("entry %s: exactly one of lever, greenhouse or url is required", e.label())
	}
	return d, nil
}

func (e SourceEntry) label() string {
	if strings.TrimSpace(e.Name) == "" {
		return "<unnamed>"
	}
	return e.Name
}

// Registry validates the roster. Every problem is reported in one
// *source.ConfigError; suspicious but legal entries are only logged.
func (c *Config) Registry(logger *slog.Logger) (*source.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var problems []string
	descs := make([]source.Descriptor, 0, len(c.Sources))
	for _, e := range c.Sources {
		d, err := e.Descriptor()
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		descs = append(descs, d)
	}

	reg, err := source.NewRegistry(descs)
	if err != nil {
		var cfgErr *source.ConfigError
		if errors.As(err, &cfgErr) {
			problems = append(problems, cfgErr.Problems...)
		} else {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, &source.ConfigError{Problems: problems}
	}

	for _, d := range reg.Entries() {
		if d.Kind != source.KindPage {
			continue
		}
		u, err := url.Parse(d.Locator)
		if err != nil {
			continue
		}
		if kind := urlutil.ATSKind(u.Hostname()); kind != "" {
			logger.Warn("page source is hosted by a structured board", "source", d.Name, "url", d.Locator, "suggested_kind", kind)
		}
	}
	for _, name := range reg.DuplicateNames() {
		logger.Warn("duplicate source name", "source", name)
	}
	return reg, nil
}
