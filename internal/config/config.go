// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"strings"
	"time"

	"cryptoview/internal/chart"
	"cryptoview/pkg/tracing"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	HTTPPort    int    `env:"HTTP_PORT"`
	LogLevel    string `env:"LOG_LEVEL"`

	TracingEnabled bool   `env:"TRACING_ENABLED"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SSHPort                   int      `env:"SSH_PORT"`
	SSHHostKeyPath            string   `env:"SSH_HOST_KEY_PATH"`
	SSHAuthorizedFingerprints []string `env:"SSH_AUTHORIZED_FINGERPRINTS" envSeparator:","`
	SSHMetricsPort            int      `env:"SSH_METRICS_PORT"`

	CoinGeckoPollSecs int `env:"COINGECKO_POLL_SECS"`
	CandleCacheSecs   int `env:"CANDLE_CACHE_SECS"`

	ChartMaxPoints   int     `env:"CHART_MAX_POINTS"`
	ChartMAPeriod    int     `env:"CHART_MA_PERIOD"`
	ChartStatic      bool    `env:"CHART_STATIC"`
	ChartWidth       float64 `env:"CHART_WIDTH"`
	ChartHeight      float64 `env:"CHART_HEIGHT"`
	ChartStrokeColor string  `env:"CHART_STROKE_COLOR"`
}

func defaults() Config {
	c := chart.DefaultConfig()
	return Config{
		RedisURL:          "localhost:6379",
		HTTPPort:          8080,
		LogLevel:          "info",
		TracingEnabled:    true,
		OTLPEndpoint:      "localhost:4317",
		SSHPort:           2222,
		SSHHostKeyPath:    ".ssh/cryptoview_ed25519",
		SSHMetricsPort:    9091,
		CoinGeckoPollSecs: 60,
		CandleCacheSecs:   30,
		ChartMaxPoints:    c.MaxDataPoints,
		ChartMAPeriod:     c.MAPeriod,
		ChartStatic:       c.Static,
		ChartWidth:        c.Width,
		ChartHeight:       c.Height,
		ChartStrokeColor:  c.StrokeColor,
	}
}

// Load reads the environment over the defaults. Values that fail to parse
// or are out of range keep their default and are logged.
func Load() *Config {
	def := defaults()
	cfg := def
	if err := env.ParseWithOptions(&cfg, env.Options{}); err != nil {
		var agg env.AggregateError
		if errors.As(err, &agg) {
			for _, e := range agg.Errors {
				log.Warn("ignoring invalid setting", "err", e)
			}
		} else {
			log.Warn("ignoring environment", "err", err)
			cfg = def
		}
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set")
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Warn("REDIS_URL empty, defaulting", "addr", def.RedisURL)
		cfg.RedisURL = def.RedisURL
	}
	positive(&cfg.HTTPPort, def.HTTPPort, "HTTP_PORT")
	positive(&cfg.SSHPort, def.SSHPort, "SSH_PORT")
	nonNegative(&cfg.SSHMetricsPort, def.SSHMetricsPort, "SSH_METRICS_PORT")
	positive(&cfg.CoinGeckoPollSecs, def.CoinGeckoPollSecs, "COINGECKO_POLL_SECS")
	positive(&cfg.CandleCacheSecs, def.CandleCacheSecs, "CANDLE_CACHE_SECS")
	nonNegative(&cfg.ChartMaxPoints, def.ChartMaxPoints, "CHART_MAX_POINTS")
	nonNegative(&cfg.ChartMAPeriod, def.ChartMAPeriod, "CHART_MA_PERIOD")
	if cfg.ChartWidth <= 0 {
		cfg.ChartWidth = def.ChartWidth
	}
	if cfg.ChartHeight <= 0 {
		cfg.ChartHeight = def.ChartHeight
	}
	if cfg.ChartStrokeColor == "" {
		cfg.ChartStrokeColor = def.ChartStrokeColor
	}
	fps := cfg.SSHAuthorizedFingerprints[:0]
	for _, fp := range cfg.SSHAuthorizedFingerprints {
		if fp = strings.TrimSpace(fp); fp != "" {
			fps = append(fps, fp)
		}
	}
	cfg.SSHAuthorizedFingerprints = fps
	return &cfg
}

func positive(v *int, def int, key string) {
	if *v <= 0 {
		if *v != 0 {
			log.Warn("setting must be positive, using default", "key", key, "value", *v, "default", def)
		}
		*v = def
	}
}

func nonNegative(v *int, def int, key string) {
	if *v < 0 {
		log.Warn("setting must not be negative, using default", "key", key, "value", *v, "default", def)
		*v = def
	}
}

// Tracing returns the tracer settings.
func (c *Config) Tracing() tracing.Options {
	return tracing.Options{
		Enabled:  c.TracingEnabled,
		Endpoint: c.OTLPEndpoint,
		Service:  tracing.ServiceName,
	}
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Chart returns the chart engine settings derived from the environment.
func (c *Config) Chart() chart.Config {
	cc := chart.DefaultConfig()
	cc.MaxDataPoints = c.ChartMaxPoints
	cc.MAPeriod = c.ChartMAPeriod
	cc.Static = c.ChartStatic
	cc.Width = c.ChartWidth
	cc.Height = c.ChartHeight
	cc.StrokeColor = c.ChartStrokeColor
	return cc
}

// PollInterval is the spacing between price refreshes.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.CoinGeckoPollSecs) * time.Second
}

// CandleCacheTTL is how long a candle query stays cached in Redis.
func (c *Config) CandleCacheTTL() time.Duration {
	return time.Duration(c.CandleCacheSecs) * time.Second
}
