package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"trade-halt-alerts/internal/logging"
	"trade-halt-alerts/internal/storage"
)

// Config materialises application configuration.
type Config struct {
	App          AppConfig              `mapstructure:"app"`
	Logging      logging.Config         `mapstructure:"logging"`
	Storage      StorageConfig          `mapstructure:"storage"`
	Database     storage.PostgresConfig `mapstructure:"database"`
	Redis        storage.RedisConfig    `mapstructure:"redis"`
	Discord      DiscordConfig          `mapstructure:"discord"`
	Scheduler    SchedulerConfig        `mapstructure:"scheduler"`
	Feed         FeedConfig             `mapstructure:"feed"`
	Finnhub      FinnhubConfig          `mapstructure:"finnhub"`
	Verification VerificationConfig     `mapstructure:"verification"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// StorageConfig selects the key/value backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DiscordConfig covers the chat platform session.
type DiscordConfig struct {
	Token  string `mapstructure:"token"`
	Prefix string `mapstructure:"prefix"`
	Status string `mapstructure:"status"`
}

// SchedulerConfig governs the ingestion cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// FeedConfig covers the trade-halt feed.
type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BatchSize      int           `mapstructure:"batch_size"`
}

// FinnhubConfig covers the quote/levels enrichment API.
type FinnhubConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Resolution     string        `mapstructure:"resolution"`
}

// VerificationConfig bounds the challenge policy.
type VerificationConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HALTWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "haltwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.backend", "postgres")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("discord.prefix", "silk")
	v.SetDefault("discord.status", "The Markets")

	v.SetDefault("scheduler.interval", "10s")
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("feed.url", "http://www.nasdaqtrader.com/rss.aspx?feed=tradehalts")
	v.SetDefault("feed.request_timeout", "10s")
	v.SetDefault("feed.batch_size", 5)

	v.SetDefault("finnhub.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.request_timeout", "5s")
	v.SetDefault("finnhub.resolution", "D")

	v.SetDefault("verification.max_attempts", 3)
	v.SetDefault("verification.cooldown", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("storage.backend must be postgres or redis, got %q", c.Storage.Backend)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Feed.BatchSize <= 0 {
		return fmt.Errorf("feed.batch_size must be greater than zero")
	}
	if c.Verification.MaxAttempts <= 0 {
		return fmt.Errorf("verification.max_attempts must be greater than zero")
	}
	if c.Verification.Cooldown <= 0 {
		return fmt.Errorf("verification.cooldown must be greater than zero")
	}
	return nil
}
