// Package common holds configuration and shared helpers for the gallery
// mirror.
package common

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration, read from config.toml.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	StorePath string `mapstructure:"db_path"`
	// Workers bounds how many images of one gallery are resolved in flight.
	Workers int `mapstructure:"threads_num"`

	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Telegraph TelegraphConfig `mapstructure:"telegraph"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

// CatalogConfig configures the source catalog client and the scan.
type CatalogConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Cookie    string `mapstructure:"cookie"`
	UserAgent string `mapstructure:"user_agent"`
	Keyword   string `mapstructure:"keyword"`
	MaxPages  int    `mapstructure:"max_pages"`
	// MaxImages caps how many images are uploaded per gallery unless a full
	// version was already committed.
	MaxImages  int    `mapstructure:"max_img_cnt"`
	LocalCache bool   `mapstructure:"local_cache"`
	CachePath  string `mapstructure:"cache_path"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// TelegraphConfig configures the article host.
type TelegraphConfig struct {
	Token  string `mapstructure:"token"`
	Upload bool   `mapstructure:"upload"`
}

// TelegramConfig configures the messaging channel.
type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel_id"`
}

// Timeout returns the per-call network timeout for catalog and image fetches.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "./db")
	v.SetDefault("threads_num", 4)
	v.SetDefault("catalog.max_pages", 1)
	v.SetDefault("catalog.max_img_cnt", 50)
	v.SetDefault("catalog.cache_path", "./cache")
	v.SetDefault("catalog.timeout_sec", 15)
	v.SetDefault("catalog.user_agent", "Mozilla/5.0 gallerysync/1.0")
	v.SetDefault("telegraph.upload", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("threads_num must be at least 1")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url cannot be empty")
	}
	if c.Catalog.MaxPages < 1 {
		return fmt.Errorf("catalog.max_pages must be at least 1")
	}
	if c.Catalog.MaxImages < 1 {
		return fmt.Errorf("catalog.max_img_cnt must be at least 1")
	}
	if c.Telegram.Token == "" || c.Telegram.Channel == "" {
		return fmt.Errorf("telegram.token and telegram.channel_id are required")
	}
	return nil
}
