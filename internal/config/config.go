package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
// It is built once at startup and handed to the components that need it.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	SourcesFile    string `mapstructure:"sources_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	DatabasePath   string `mapstructure:"database_path"`
	LockDir        string `mapstructure:"lock_dir"`

	CheckIntervalSeconds  int64         `mapstructure:"check_interval"`
	CheckInterval         time.Duration `mapstructure:"-"`
	LookaheadWindow       int           `mapstructure:"lookahead_window"`
	ScraperTimeoutSeconds int64         `mapstructure:"scraper_timeout_seconds"`
	ScraperTimeout        time.Duration `mapstructure:"-"`
	LockTimeoutSeconds    int64         `mapstructure:"lock_timeout_seconds"`
	LockTimeout           time.Duration `mapstructure:"-"`

	SeenStoreType      string        `mapstructure:"seen_store_type"`
	BBoltPath          string        `mapstructure:"bbolt_path"`
	SeenTTLSeconds     int64         `mapstructure:"seen_ttl_seconds"`
	SeenCleanupSeconds int64         `mapstructure:"seen_cleanup_interval_seconds"`
	SeenTTL            time.Duration `mapstructure:"-"`
	SeenCleanup        time.Duration `mapstructure:"-"`

	TelegramAPIBase        string        `mapstructure:"telegram_api_base"`
	TelegramTimeoutSeconds int64         `mapstructure:"telegram_timeout_seconds"`
	TelegramTimeout        time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "waeleaks")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("database_path", "./data/catalog.db")
	v.SetDefault("lock_dir", "./data/locks")
	v.SetDefault("check_interval", 1800) // seconds
	v.SetDefault("lookahead_window", 5)
	v.SetDefault("scraper_timeout_seconds", 20)
	v.SetDefault("lock_timeout_seconds", 120)
	v.SetDefault("seen_store_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/feeds.db")
	v.SetDefault("seen_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("seen_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("telegram_api_base", "https://api.telegram.org")
	v.SetDefault("telegram_timeout_seconds", 10)
	v.SetDefault("metrics_addr", ":9090")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return nil, fmt.Errorf("database_path is required")
	}
	if strings.TrimSpace(cfg.LockDir) == "" {
		return nil, fmt.Errorf("lock_dir is required")
	}
	if cfg.LookaheadWindow <= 0 {
		return nil, fmt.Errorf("invalid lookahead_window (must be positive)")
	}

	var err error
	if cfg.CheckInterval, err = seconds("check_interval", cfg.CheckIntervalSeconds); err != nil {
		return nil, err
	}
	if cfg.ScraperTimeout, err = seconds("scraper_timeout_seconds", cfg.ScraperTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.LockTimeout, err = seconds("lock_timeout_seconds", cfg.LockTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.SeenTTL, err = seconds("seen_ttl_seconds", cfg.SeenTTLSeconds); err != nil {
		return nil, err
	}
	if cfg.SeenCleanup, err = seconds("seen_cleanup_interval_seconds", cfg.SeenCleanupSeconds); err != nil {
		return nil, err
	}
	if cfg.TelegramTimeout, err = seconds("telegram_timeout_seconds", cfg.TelegramTimeoutSeconds); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func seconds(key string, value int64) (time.Duration, error) {
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s (must be positive seconds)", key)
	}
	return time.Duration(value) * time.Second, nil
}
