package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Ticker is a watchlist entry with its holding amount.
type Ticker struct {
	Symbol string  `yaml:"symbol"`
	Amount float64 `yaml:"amount"`
}

// Config holds all application configuration.
type Config struct {
	Horizon      int      `yaml:"horizon"`
	HistoryYears int      `yaml:"history_years"`
	LogLevel     string   `yaml:"log_level"`
	Tickers      []Ticker `yaml:"tickers"`
	Telegram     struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL       string  `yaml:"base_url"`
		APIKey        string  `yaml:"api_key"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"data_source"`
	Schedule struct {
		ForecastCron string `yaml:"forecast_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Holdings struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"holdings"`
	Output struct {
		ChartDir string `yaml:"chart_dir"`
	} `yaml:"output"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("FORECAST_CRON"); v != "" {
		cfg.Schedule.ForecastCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FORECAST_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Horizon = n
		}
	}

	// Defaults
	if cfg.Horizon == 0 {
		cfg.Horizon = 10
	}
	if cfg.HistoryYears == 0 {
		cfg.HistoryYears = 15
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DataSource.RatePerSecond == 0 {
		cfg.DataSource.RatePerSecond = 2
	}
	if cfg.DataSource.Burst == 0 {
		cfg.DataSource.Burst = 2
	}
	if cfg.Schedule.ForecastCron == "" {
		cfg.Schedule.ForecastCron = "0 0 9 * * 1"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/forecasts.db"
	}
	if cfg.Holdings.StateFile == "" {
		cfg.Holdings.StateFile = "data/holdings.json"
	}

	return cfg, nil
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	if c.HistoryYears <= 0 {
		return fmt.Errorf("history_years must be positive")
	}
	if c.DataSource.RatePerSecond < 0 {
		return fmt.Errorf("data_source.rate_per_second must not be negative")
	}
	for i, t := range c.Tickers {
		if t.Symbol == "" {
			return fmt.Errorf("tickers[%d].symbol is required", i)
		}
	}
	return nil
}

// ValidateWatch checks the extra settings needed by scheduled mode.
func (c *Config) ValidateWatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Tickers) == 0 {
		return fmt.Errorf("tickers: at least one watchlist entry is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
