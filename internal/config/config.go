package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	Username              string        `mapstructure:"neocities_username"`
	Password              string        `mapstructure:"neocities_password"`
	APIBaseURL            string        `mapstructure:"api_base_url"`
	UserAgent             string        `mapstructure:"user_agent"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	SiteURLTemplate       string        `mapstructure:"site_url_template"`

	ManifestFile        string        `mapstructure:"manifest_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PushIntervalSeconds int64         `mapstructure:"push_interval_seconds"`
	PushInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "***"
	}
	return c
}

// Load reads configuration from environment variables, configs/.env and, when
// file is not empty, an explicit YAML/JSON/TOML config file.
func Load(file string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "neocities")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("neocities_username", "")
	v.SetDefault("neocities_password", "")
	v.SetDefault("api_base_url", "https://neocities.org")
	v.SetDefault("user_agent", "neocities-go/1.0")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("site_url_template", "https://%s.neocities.org/")
	v.SetDefault("manifest_file", "./neocities.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("push_interval_seconds", 0) // 0 = push once
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/uploads.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	if file = strings.TrimSpace(file); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.RequestTimeoutSeconds <= 0 {
		return errors.New("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.PushIntervalSeconds < 0 {
		return errors.New("invalid push_interval_seconds (must be zero or positive seconds)")
	}
	cfg.PushInterval = time.Duration(cfg.PushIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return errors.New("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return errors.New("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if !strings.Contains(cfg.SiteURLTemplate, "%s") {
		return fmt.Errorf("invalid site_url_template %q (must contain %%s)", cfg.SiteURLTemplate)
	}
	return nil
}
