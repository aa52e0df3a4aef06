package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quote-engine-go/strategy"
)

// AppConfig holds the main runtime configuration. It is read once at startup
// and treated as immutable; the watcher delivers whole new snapshots.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Symbol  string        `yaml:"symbol"`
	Feed    FeedConfig    `yaml:"feed"`
	Engine  EngineConfig  `yaml:"engine"`
	Paper   PaperConfig   `yaml:"paper"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type FeedConfig struct {
	Endpoint       string `yaml:"endpoint"`
	ReadTimeoutSec int    `yaml:"readTimeoutSec"`
}

// EngineConfig is the YAML surface of the quoting parameters.
type EngineConfig struct {
	OrderAmount         float64 `yaml:"orderAmount"`
	BaseSpread          float64 `yaml:"baseSpread"`
	MinSpread           float64 `yaml:"minSpread"`
	MaxSpread           float64 `yaml:"maxSpread"`
	TrendK              float64 `yaml:"trendK"`
	SkewK               float64 `yaml:"skewK"`
	OrderRefreshTimeSec int     `yaml:"orderRefreshTimeSec"`
	TargetBasePct       float64 `yaml:"targetBasePct"`
	MaxSkew             float64 `yaml:"maxSkew"`
	VolWindow           int     `yaml:"volWindow"`
	VolBandK            float64 `yaml:"volBandK"`
	TrendFastWindow     int     `yaml:"trendFastWindow"`
	TrendSlowWindow     int     `yaml:"trendSlowWindow"`
}

type PaperConfig struct {
	BaseBalance  float64 `yaml:"baseBalance"`
	QuoteBalance float64 `yaml:"quoteBalance"`
	JournalPath  string  `yaml:"journalPath"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the metrics server
}

// ToStrategy converts the YAML surface into the engine's immutable config.
func (c EngineConfig) ToStrategy() strategy.Config {
	return strategy.Config{
		OrderAmount:      c.OrderAmount,
		OrderRefreshTime: time.Duration(c.OrderRefreshTimeSec) * time.Second,
		Spread: strategy.SpreadConfig{
			BaseSpread: c.BaseSpread,
			MinSpread:  c.MinSpread,
			MaxSpread:  c.MaxSpread,
			TrendK:     c.TrendK,
			SkewK:      c.SkewK,
		},
		VolWindow:       c.VolWindow,
		VolBandK:        c.VolBandK,
		TrendFastWindow: c.TrendFastWindow,
		TrendSlowWindow: c.TrendSlowWindow,
		TargetBasePct:   c.TargetBasePct,
		MaxSkew:         c.MaxSkew,
	}
}

// Load reads YAML config from path and applies validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific fields
// from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("QE_FEED_ENDPOINT"); v != "" {
		cfg.Feed.Endpoint = v
	}
	if v := os.Getenv("QE_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present and in range. Any failure here
// is fatal: the process refuses to start on a bad config.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.Feed.Endpoint == "" {
		return errors.New("feed.endpoint is required (or QE_FEED_ENDPOINT)")
	}
	if cfg.Feed.ReadTimeoutSec < 0 {
		return errors.New("feed.readTimeoutSec must be >= 0")
	}
	if err := cfg.Engine.ToStrategy().Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if cfg.Paper.BaseBalance < 0 || cfg.Paper.QuoteBalance < 0 {
		return errors.New("paper balances must be >= 0")
	}
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q not recognized", cfg.Logging.Format)
	}
	return nil
}
