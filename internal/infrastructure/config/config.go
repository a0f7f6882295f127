package config

import (
	"errors"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"stockpulse/internal/domain"
)

type Config struct {
	App struct {
		RefreshIntervalMS int    `toml:"refresh_interval_ms"`
		FetchWorkers      int    `toml:"fetch_workers"`
		FetchTimeoutMS    int    `toml:"fetch_timeout_ms"`
		MarketOpenHour    int    `toml:"market_open_hour"`
		Timezone          string `toml:"timezone"`
	} `toml:"app"`

	Universe struct {
		Symbols []string `toml:"symbols"`
	} `toml:"universe"`

	Quote struct {
		PriceURL   string `toml:"price_url"`
		HistoryURL string `toml:"history_url"`
	} `toml:"quote"`

	Server struct {
		ListenAddr string `toml:"listen_addr"`
	} `toml:"server"`

	Storage struct {
		Driver string `toml:"driver"` // "sqlite" or "postgres"
		DSN    string `toml:"dsn"`
	} `toml:"storage"`

	Redis struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
		Prefix  string `toml:"prefix"`
		TTLSec  int    `toml:"ttl_sec"`
	} `toml:"redis"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a runnable configuration without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.App.RefreshIntervalMS <= 0 {
		cfg.App.RefreshIntervalMS = 2000
	}
	if cfg.App.FetchWorkers <= 0 {
		cfg.App.FetchWorkers = 10
	}
	if cfg.App.FetchTimeoutMS <= 0 {
		cfg.App.FetchTimeoutMS = 5000
	}
	if cfg.App.MarketOpenHour <= 0 {
		cfg.App.MarketOpenHour = 9
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Asia/Kolkata"
	}
	if len(cfg.Universe.Symbols) == 0 {
		cfg.Universe.Symbols = append([]string(nil), domain.DefaultSymbols...)
	}
	if cfg.Quote.PriceURL == "" {
		cfg.Quote.PriceURL = "https://www.google.com/finance/quote"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8000"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/stockpulse.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "stockpulse"
	}
	if cfg.Redis.TTLSec <= 0 {
		cfg.Redis.TTLSec = 60
	}
}

func validate(cfg *Config) error {
	cfg.Universe.Symbols = normalizeSymbols(cfg.Universe.Symbols)
	if len(cfg.Universe.Symbols) == 0 {
		return errors.New("universe.symbols is empty")
	}

	switch cfg.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return errors.New("storage.driver must be sqlite or postgres")
	}
	if cfg.Storage.Driver == "postgres" && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return errors.New("storage.dsn required for postgres driver")
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		return errors.New("app.timezone is not a valid IANA zone")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.App.RefreshIntervalMS) * time.Millisecond
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.App.FetchTimeoutMS) * time.Millisecond
}
