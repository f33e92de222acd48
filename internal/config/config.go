package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	HTTPAddr       string `mapstructure:"http_addr"`
	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	FetchUserAgent      string        `mapstructure:"fetch_user_agent"`
	FetchMaxBodyBytes   int           `mapstructure:"fetch_max_body_bytes"`
	BlockPrivateHosts   bool          `mapstructure:"block_private_hosts"`
	ExtractConcurrency  int           `mapstructure:"extract_concurrency"`

	ExtractRatePerSecond float64 `mapstructure:"extract_rate_per_second"`
	ExtractBurst         int     `mapstructure:"extract_burst"`

	DefaultBlogImage string `mapstructure:"default_blog_image"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	SQLitePath             string        `mapstructure:"sqlite_path"`
	MetadataCacheTTLSecs   int64         `mapstructure:"metadata_cache_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	MetadataCacheTTL       time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "blogmeta")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("providers_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("fetch_timeout_seconds", 15)
	v.SetDefault("fetch_user_agent", "")
	v.SetDefault("fetch_max_body_bytes", 2<<20)
	v.SetDefault("block_private_hosts", true)
	v.SetDefault("extract_concurrency", 4)
	v.SetDefault("extract_rate_per_second", 2.0)
	v.SetDefault("extract_burst", 5)
	v.SetDefault("default_blog_image", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/blogmeta.db")
	v.SetDefault("sqlite_path", "./data/blogmeta.sqlite")
	v.SetDefault("metadata_cache_ttl_seconds", int64(time.Hour/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))

	if cfg.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.FetchMaxBodyBytes <= 0 {
		return fmt.Errorf("invalid fetch_max_body_bytes (must be positive)")
	}
	if cfg.ExtractConcurrency <= 0 {
		return fmt.Errorf("invalid extract_concurrency (must be positive)")
	}
	if cfg.ExtractRatePerSecond < 0 || cfg.ExtractBurst < 0 {
		return fmt.Errorf("invalid extract rate limit (must not be negative)")
	}

	if cfg.MetadataCacheTTLSecs < 0 {
		return fmt.Errorf("invalid metadata_cache_ttl_seconds (must not be negative)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.MetadataCacheTTL = time.Duration(cfg.MetadataCacheTTLSecs) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
