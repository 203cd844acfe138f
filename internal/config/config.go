package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/profitlock"
)

var validate = validator.New()

// Config is the full engine configuration, loaded from YAML with defaults
// applied before validation.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`

	Server struct {
		Addr            string        `yaml:"addr" default:":8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Storage struct {
		// Backend selects the durable ledger. The in-memory backend is for
		// demos and tests; restarts lose history.
		Backend     string `yaml:"backend" default:"memory" validate:"oneof=memory postgres"`
		PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`

		Analytics struct {
			Enabled       bool   `yaml:"enabled"`
			ClickhouseDSN string `yaml:"clickhouse_dsn" validate:"required_if=Enabled true"`
		} `yaml:"analytics"`
	} `yaml:"storage"`

	Feed struct {
		Source string `yaml:"source" default:"websocket" validate:"oneof=websocket static"`
		URL    string `yaml:"url" default:"wss://stream.binance.com:9443/ws" validate:"required_if=Source websocket"`

		// Static prices, keyed by symbol. Only read when source is "static".
		Prices map[string]float64 `yaml:"prices"`
	} `yaml:"feed"`

	// Sessions configures one trading session per entry.
	Sessions []SessionSpec `yaml:"sessions" validate:"min=1,dive"`
}

// SessionSpec is one session's bot configuration.
type SessionSpec struct {
	// Name becomes the session ID. Empty means a generated UUID.
	Name     string   `yaml:"name"`
	Account  string   `yaml:"account" default:"main"`
	Exchange string   `yaml:"exchange" default:"paper"`
	Mode     string   `yaml:"mode" default:"DEMO" validate:"oneof=DEMO LIVE"`
	Symbols  []string `yaml:"symbols" validate:"min=1"`

	DailyTarget    float64 `yaml:"daily_target" default:"100" validate:"gt=0"`
	DailyStopLoss  float64 `yaml:"daily_stop_loss" default:"50" validate:"gt=0"`
	ProfitPerTrade float64 `yaml:"profit_per_trade" default:"1" validate:"gt=0"`
	PositionAmount float64 `yaml:"position_amount" default:"200" validate:"gt=0"`
	MinNetProfit   float64 `yaml:"min_net_profit" default:"0.1" validate:"gte=0"`
	FeeRate        float64 `yaml:"fee_rate" default:"0.001" validate:"gte=0,lt=0.05"`

	MinInterval  time.Duration `yaml:"min_interval" default:"5s"`
	MaxHold      time.Duration `yaml:"max_hold" default:"2m" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" default:"1s" validate:"gt=0"`

	Trailing struct {
		Enabled      bool    `yaml:"enabled"`
		TriggerPct   float64 `yaml:"trigger_pct" default:"0.3" validate:"gte=0"`
		LockFraction float64 `yaml:"lock_fraction" default:"0.5" validate:"gte=0,lte=1"`
	} `yaml:"trailing"`
}

// Load reads a YAML file, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and endpoints
// from environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.Analytics.ClickhouseDSN = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}

	return c, nil
}

// AllSymbols returns the union of every session's symbols, for feed
// subscriptions.
func (c *Config) AllSymbols() []string {
	seen := make(map[string]struct{})
	var symbols []string
	for _, s := range c.Sessions {
		for _, sym := range s.Symbols {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

// SessionConfig converts the file representation into the engine's
// session thresholds.
func (s SessionSpec) SessionConfig() domain.SessionConfig {
	return domain.SessionConfig{
		Symbols:        s.Symbols,
		DailyTarget:    s.DailyTarget,
		DailyStopLoss:  s.DailyStopLoss,
		ProfitPerTrade: s.ProfitPerTrade,
		PositionAmount: s.PositionAmount,
		MinNetProfit:   s.MinNetProfit,
		FeeRate:        s.FeeRate,
		MinInterval:    s.MinInterval,
		MaxHold:        s.MaxHold,
		PollInterval:   s.PollInterval,
	}
}

// TrailingConfig converts the trailing-lock section for the exit monitor.
func (s SessionSpec) TrailingConfig() profitlock.TrailingConfig {
	return profitlock.TrailingConfig{
		Enabled:      s.Trailing.Enabled,
		TriggerPct:   s.Trailing.TriggerPct,
		LockFraction: s.Trailing.LockFraction,
	}
}

// SessionMode maps the configured mode string onto the domain type.
func (s SessionSpec) SessionMode() domain.SessionMode {
	if s.Mode == "LIVE" {
		return domain.SessionModeLive
	}
	return domain.SessionModeDemo
}
