package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Catalog   CatalogConfig
	Finance   FinanceConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig selects and tunes the financial snapshot cache
type CacheConfig struct {
	Backend       string        // memory, redis
	TTL           time.Duration // 0 = snapshots never expire
	KeyPrefix     string
	AllowFallback bool // fall back to memory when Redis is unreachable
}

// CatalogConfig controls cost code catalog seeding at startup
type CatalogConfig struct {
	SeedDefaults bool
	SeedFile     string // optional CSV catalog imported after the defaults
}

// FinanceConfig holds thresholds used by the expense classifier and aggregator
type FinanceConfig struct {
	DefaultCurrency       string
	LargeExpenseThreshold float64
	OCRMinConfidence      float64
	OCRReviewConfidence   float64
	InvalidateOnEvents    bool
	CommitmentAllocation  string // registered allocation strategy; empty = registry default
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	Enabled        bool
	Endpoint       string // OTLP gRPC collector, host:port
	Insecure       bool
	SamplingRatio  float64 // 0.0-1.0
	ExportInterval time.Duration
	LogLevel       string // minimum level bridged to the OTLP log pipeline
}

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with JOBCOST_ prefix (e.g., JOBCOST_REDIS_HOST)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/jobcost")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return fromViper(v)
}

// LoadFile loads configuration from an explicit TOML file plus environment overrides
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("JOBCOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans whose default is true must be registered so an explicit false sticks
	v.SetDefault("cache.allow_fallback", true)
	v.SetDefault("catalog.seed_defaults", true)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Backend:       v.GetString("cache.backend"),
			TTL:           v.GetDuration("cache.ttl"),
			KeyPrefix:     v.GetString("cache.key_prefix"),
			AllowFallback: v.GetBool("cache.allow_fallback"),
		},
		Catalog: CatalogConfig{
			SeedDefaults: v.GetBool("catalog.seed_defaults"),
			SeedFile:     v.GetString("catalog.seed_file"),
		},
		Finance: FinanceConfig{
			DefaultCurrency:       v.GetString("finance.default_currency"),
			LargeExpenseThreshold: v.GetFloat64("finance.large_expense_threshold"),
			OCRMinConfidence:      v.GetFloat64("finance.ocr_min_confidence"),
			OCRReviewConfidence:   v.GetFloat64("finance.ocr_review_confidence"),
			InvalidateOnEvents:    v.GetBool("finance.invalidate_on_events"),
			CommitmentAllocation:  v.GetString("finance.commitment_allocation"),
		},
		Telemetry: TelemetryConfig{
			Enabled:        v.GetBool("telemetry.enabled"),
			Endpoint:       v.GetString("telemetry.endpoint"),
			Insecure:       v.GetBool("telemetry.insecure"),
			SamplingRatio:  v.GetFloat64("telemetry.sampling_ratio"),
			ExportInterval: v.GetDuration("telemetry.export_interval"),
			LogLevel:       v.GetString("telemetry.log_level"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "jobcost"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "jobcost:financials:"
	}
	if cfg.Finance.DefaultCurrency == "" {
		cfg.Finance.DefaultCurrency = "USD"
	}
	if cfg.Finance.LargeExpenseThreshold == 0 {
		cfg.Finance.LargeExpenseThreshold = 10000
	}
	if cfg.Finance.OCRMinConfidence == 0 {
		cfg.Finance.OCRMinConfidence = 0.3
	}
	if cfg.Finance.OCRReviewConfidence == 0 {
		cfg.Finance.OCRReviewConfidence = 0.8
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = "info"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	if c.Finance.LargeExpenseThreshold <= 0 {
		return fmt.Errorf("finance.large_expense_threshold must be positive")
	}
	if c.Finance.OCRMinConfidence <= 0 || c.Finance.OCRMinConfidence > 1 {
		return fmt.Errorf("finance.ocr_min_confidence must be in (0, 1], got %f", c.Finance.OCRMinConfidence)
	}
	if c.Finance.OCRReviewConfidence <= 0 || c.Finance.OCRReviewConfidence > 1 {
		return fmt.Errorf("finance.ocr_review_confidence must be in (0, 1], got %f", c.Finance.OCRReviewConfidence)
	}
	if c.Finance.OCRMinConfidence > c.Finance.OCRReviewConfidence {
		return fmt.Errorf("finance.ocr_min_confidence (%.2f) cannot exceed finance.ocr_review_confidence (%.2f)",
			c.Finance.OCRMinConfidence, c.Finance.OCRReviewConfidence)
	}
	if len(c.Finance.DefaultCurrency) != 3 {
		return fmt.Errorf("finance.default_currency must be a 3-letter ISO code, got %q", c.Finance.DefaultCurrency)
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.ExportInterval < time.Second {
		return fmt.Errorf("telemetry.export_interval must be at least 1s, got %s", c.Telemetry.ExportInterval)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Cache.Backend == CacheBackendRedis && c.Redis.Password == "" {
			return fmt.Errorf("redis.password is required in production")
		}
	}

	return nil
}
