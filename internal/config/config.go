package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CoinLens/internal/model"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	Proxy    string `yaml:"proxy"`

	DataSource struct {
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		QuoteCurrency string `yaml:"quote_currency"`
		MarketLimit   int    `yaml:"market_limit"`
		CandleCount   int    `yaml:"candle_count"`
		NewsLimit     int    `yaml:"news_limit"`
		Location      string `yaml:"location"`
		Mock          bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Narrator struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"narrator"`
	Dashboard struct {
		DefaultMarket     string `yaml:"default_market"`
		DefaultTimeframe  string `yaml:"default_timeframe"`
		TickerCron        string `yaml:"ticker_cron"`
		RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	} `yaml:"dashboard"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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
	if v := firstEnv("GEMINI_API_KEY", "API_KEY"); v != "" {
		cfg.Narrator.APIKey = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MOCK_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DataSource.Mock = b
		}
	}

	// Defaults
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "data/dashboard.log"
	}
	if cfg.DataSource.QuoteCurrency == "" {
		cfg.DataSource.QuoteCurrency = "KRW"
	}
	if cfg.DataSource.MarketLimit == 0 {
		cfg.DataSource.MarketLimit = 50
	}
	if cfg.DataSource.CandleCount == 0 {
		cfg.DataSource.CandleCount = 200
	}
	if cfg.DataSource.NewsLimit == 0 {
		cfg.DataSource.NewsLimit = 10
	}
	if cfg.Narrator.Model == "" {
		cfg.Narrator.Model = "gemini-3-flash-preview"
	}
	if cfg.Dashboard.DefaultMarket == "" {
		cfg.Dashboard.DefaultMarket = model.MarketCode(cfg.DataSource.QuoteCurrency, "BTC")
	}
	if cfg.Dashboard.DefaultTimeframe == "" {
		cfg.Dashboard.DefaultTimeframe = string(model.Timeframe1h)
	}
	if cfg.Dashboard.TickerCron == "" {
		cfg.Dashboard.TickerCron = "@every 3s"
	}
	if cfg.Dashboard.RequestTimeoutSec == 0 {
		cfg.Dashboard.RequestTimeoutSec = 20
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Narrator.APIKey == "" && !c.DataSource.Mock {
		return fmt.Errorf("narrator.api_key is required (or set GEMINI_API_KEY)")
	}
	if _, ok := model.ParseTimeframe(c.Dashboard.DefaultTimeframe); !ok {
		return fmt.Errorf("dashboard.default_timeframe %q is not a known timeframe", c.Dashboard.DefaultTimeframe)
	}
	if c.DataSource.MarketLimit < 0 || c.DataSource.CandleCount < 0 || c.DataSource.NewsLimit < 0 {
		return fmt.Errorf("data_source limits must not be negative")
	}
	if c.Dashboard.RequestTimeoutSec < 0 {
		return fmt.Errorf("dashboard.request_timeout_sec must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Location resolves data_source.location, defaulting to the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.DataSource.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DataSource.Location)
	if err != nil {
		return nil, fmt.Errorf("data_source.location: %w", err)
	}
	return loc, nil
}

// Timeframe returns the parsed default timeframe.
func (c *Config) Timeframe() model.Timeframe {
	tf, ok := model.ParseTimeframe(c.Dashboard.DefaultTimeframe)
	if !ok {
		return model.Timeframe1h
	}
	return tf
}

// RequestTimeout returns the per-call bound for dashboard requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Dashboard.RequestTimeoutSec) * time.Second
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
