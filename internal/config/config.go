package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultFeedEvent   = "mutations"
	DefaultFeedPath    = "/socket.io/"
	DefaultFeedNS      = "/"
	DefaultSettleLimit = 1000
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocumentPaths  []string `hcl:"documents,optional" toml:"documents" yaml:"documents"`
	ComponentPaths []string `hcl:"components,optional" toml:"components" yaml:"components"`

	LogLevel        string `hcl:"log_level,optional" toml:"log_level" yaml:"log_level"`
	LogFormat       string `hcl:"log_format,optional" toml:"log_format" yaml:"log_format"`
	InspectPort     int    `hcl:"inspect_port,optional" toml:"inspect_port" yaml:"inspect_port"`
	MaxSettleRounds int    `hcl:"max_settle_rounds,optional" toml:"max_settle_rounds" yaml:"max_settle_rounds"`

	Feed *FeedConfig `hcl:"feed,block" toml:"feed" yaml:"feed"`
}

// FeedConfig configures the remote mutation feed. A nil FeedConfig or an
// empty URL disables it.
type FeedConfig struct {
	URL       string `hcl:"url" toml:"url" yaml:"url"`
	Namespace string `hcl:"namespace,optional" toml:"namespace" yaml:"namespace"`
	Event     string `hcl:"event,optional" toml:"event" yaml:"event"`
	Path      string `hcl:"path,optional" toml:"path" yaml:"path"`
}

// Defaults returns the configuration used before any source is applied.
func Defaults() Config {
	return Config{
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		MaxSettleRounds: DefaultSettleLimit,
	}
}

// FeedEnabled reports whether a feed URL is configured.
func (c *Config) FeedEnabled() bool {
	return c.Feed != nil && c.Feed.URL != ""
}

// ParseLevel maps a configured log level to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", level)
}

// NewConfig validates cfg and fills the feed defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.DocumentPaths) == 0 {
		return nil, errors.New("at least one document path is required")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	if cfg.InspectPort < 0 || cfg.InspectPort > 65535 {
		return nil, fmt.Errorf("invalid inspect port %d", cfg.InspectPort)
	}
	if cfg.MaxSettleRounds < 0 {
		return nil, fmt.Errorf("invalid max settle rounds %d: must not be negative", cfg.MaxSettleRounds)
	}

	if cfg.FeedEnabled() {
		feed := *cfg.Feed
		u, err := url.Parse(feed.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid feed url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid feed url %q: scheme and host are required", feed.URL)
		}
		if feed.Namespace == "" {
			feed.Namespace = DefaultFeedNS
		}
		if feed.Event == "" {
			feed.Event = DefaultFeedEvent
		}
		if feed.Path == "" {
			feed.Path = DefaultFeedPath
		}
		cfg.Feed = &feed
	}

	return &cfg, nil
}
