package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	ReportsDir string `env:"REPORTS_DIR" envDefault:"csse_covid_19_data/csse_covid_19_daily_reports"`
	WindowDays int    `env:"WINDOW_DAYS" envDefault:"30"`
	Region     string `env:"REGION"      envDefault:"US"`

	ChartOutput string `env:"CHART_OUTPUT" envDefault:"chart.png"`
	ChartFormat string `env:"CHART_FORMAT" envDefault:"png"`
	ChartWidth  int    `env:"CHART_WIDTH"  envDefault:"1280"`
	ChartHeight int    `env:"CHART_HEIGHT" envDefault:"720"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	HTTPAddr        string        `env:"HTTP_ADDR"         envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"  envDefault:"10s"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"  envDefault:"1h"`
	RenderCacheSize int           `env:"RENDER_CACHE_SIZE" envDefault:"64"`

	// Kafka sink for reconciled series; disabled when no brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"region-series"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.ChartFormat = strings.ToLower(strings.TrimSpace(cfg.ChartFormat))
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings for consistency. Commands call it again after
// applying flag overrides.
func (c *Config) Validate() error {
	if c.ReportsDir == "" {
		return errors.New("REPORTS_DIR is required")
	}
	if c.WindowDays < 0 {
		return errors.New("invalid WINDOW_DAYS: must be >= 0")
	}
	if c.ChartFormat != "png" && c.ChartFormat != "svg" {
		return fmt.Errorf("invalid CHART_FORMAT %q: must be png or svg", c.ChartFormat)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return errors.New("invalid CHART_WIDTH/CHART_HEIGHT: must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("invalid SHUTDOWN_TIMEOUT: must be > 0")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("invalid REFRESH_INTERVAL: must be > 0")
	}
	if c.RenderCacheSize <= 0 {
		return errors.New("invalid RENDER_CACHE_SIZE: must be > 0")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// KafkaEnabled reports whether a sink broker list is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
