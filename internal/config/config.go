// Package config loads the run configuration shared by the CLI: a YAML
// document for strategy/simulator parameters, with .env overrides for the
// optional TimescaleDB source's credentials.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nsequant/istbacktest/pkg/costs"
)

// FilterConfig mirrors pkg/strategy.FilterConfig for YAML decoding.
type FilterConfig struct {
	TradingWindowStart string  `yaml:"trading_window_start"`
	TradingWindowEnd   string  `yaml:"trading_window_end"`
	MaxTradesPerDay    int     `yaml:"max_trades_per_day"`
	EMAGapMin          float64 `yaml:"ema_gap_min"`
	SkipWindowStart    string  `yaml:"skip_window_start"`
	SkipWindowEnd      string  `yaml:"skip_window_end"`
	ADXThreshold       float64 `yaml:"adx_threshold"`
}

// SimulatorConfig mirrors pkg/simulator.Config for YAML decoding.
type SimulatorConfig struct {
	InitialCapital      float64 `yaml:"initial_capital"`
	Quantity            float64 `yaml:"quantity"`
	Slippage            float64 `yaml:"slippage"`
	Exchange            string  `yaml:"exchange"`
	StopLossPct         float64 `yaml:"stop_loss_pct"`
	TakeProfitPct       float64 `yaml:"take_profit_pct"`
	TrailingStopEnabled bool    `yaml:"trailing_stop_enabled"`
	TrailingStopPct     float64 `yaml:"trailing_stop_pct"`
}

// ExchangeCode returns the costs.Exchange for the configured exchange name,
// defaulting to NSE.
func (s SimulatorConfig) ExchangeCode() costs.Exchange {
	if s.Exchange == string(costs.BSE) {
		return costs.BSE
	}
	return costs.NSE
}

// StrategyConfig is a loosely-typed bag of strategy parameters; the CLI
// dispatches on Name to decode the matching concrete strategy config.
type StrategyConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// DatabaseConfig holds TimescaleDBSource connection parameters. Credentials
// are expected via environment overrides (see Load), never committed in the
// YAML file itself.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	Name     string `yaml:"name"`
}

// Config is the top-level run configuration.
type Config struct {
	Symbol    string          `yaml:"symbol"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig mirrors pkg/logging.Config for YAML decoding.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	EnableFile bool   `yaml:"enable_file"`
	LogDir     string `yaml:"log_dir"`
}

// Default returns a reasonable baseline configuration.
func Default() Config {
	return Config{
		Strategy: StrategyConfig{Name: "ma_crossover"},
		Simulator: SimulatorConfig{
			InitialCapital: 100000,
			Quantity:       1,
			Slippage:       1e-4,
			Exchange:       string(costs.NSE),
			StopLossPct:    0.01,
			TakeProfitPct:  0.02,
		},
		Logging: LoggingConfig{Level: "info", Pretty: true},
	}
}

// Load reads a YAML config file, falling back to Default() fields left
// unset, then applies .env overrides (if envFile is non-empty and exists)
// for database credentials via DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return cfg, fmt.Errorf("config: load env file %s: %w", envFile, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
}

// ConnectionString builds a lib/pq-compatible connection string.
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}
