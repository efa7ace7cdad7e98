package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Storage     StorageConfig   `mapstructure:"storage"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Queue       QueueConfig     `mapstructure:"queue"`
	Expiry      ExpiryConfig    `mapstructure:"expiry"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Image       ImageConfig     `mapstructure:"image"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	InitSchema      bool          `mapstructure:"init_schema"`
}

// StorageConfig configures the S3-compatible photo bucket.
type StorageConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// LLMConfig configures the OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig configures the LLM response cache and the rescue recipe slot.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RescueBackend   string        `mapstructure:"rescue_backend"`
	RescueTTL       time.Duration `mapstructure:"rescue_ttl"`
}

// RedisConfig configures the Redis client used by the redis rescue backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// QueueConfig bounds concurrent LLM calls.
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// ExpiryConfig configures the expiry scanner.
type ExpiryConfig struct {
	WarningDays        int           `mapstructure:"warning_days"`
	KitchenName        string        `mapstructure:"kitchen_name"`
	KitchenLat         float64       `mapstructure:"kitchen_lat"`
	KitchenLon         float64       `mapstructure:"kitchen_lon"`
	LookupConcurrency  int           `mapstructure:"lookup_concurrency"`
	ScanInterval       time.Duration `mapstructure:"scan_interval"`
	KitchenRecipient   string        `mapstructure:"kitchen_recipient"`
	DefaultSupplierLat float64       `mapstructure:"default_supplier_lat"`
	DefaultSupplierLon float64       `mapstructure:"default_supplier_lon"`
}

// RateLimitConfig configures the token bucket middleware.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig configures uploaded image handling.
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	JPEGQuality  int   `mapstructure:"jpeg_quality"`
}

// LoadConfig reads configuration from defaults and the environment.
// Callers load .env into the process environment with godotenv before calling it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"database.url":            "DATABASE_URL",
		"llm.api_key":             "KOLOSAL_API_KEY",
		"llm.base_url":            "KOLOSAL_BASE_URL",
		"llm.model":               "KOLOSAL_MODEL",
		"llm.max_tokens":          "MODEL_MAX_TOKENS",
		"storage.enabled":         "S3_ENABLED",
		"storage.endpoint":        "S3_ENDPOINT",
		"storage.region":          "S3_REGION",
		"storage.access_key":      "S3_ACCESS_KEY",
		"storage.secret_key":      "S3_SECRET_KEY",
		"storage.bucket":          "S3_BUCKET",
		"storage.public_base_url": "S3_PUBLIC_BASE_URL",
		"redis.addr":              "REDIS_ADDR",
		"redis.password":          "REDIS_PASSWORD",
		"cache.enabled":           "CACHE_ENABLED",
		"cache.rescue_backend":    "RESCUE_CACHE_BACKEND",
		"expiry.warning_days":     "EXPIRY_WARNING_DAYS",
		"expiry.scan_interval":    "EXPIRY_SCAN_INTERVAL",
		"rate_limit.enabled":      "RATE_LIMIT_ENABLED",
		"rate_limit.requests":     "RATE_LIMIT_REQUESTS",
		"rate_limit.window":       "RATE_LIMIT_WINDOW",
		"server.port":             "PORT",
		"dedup_window":            "DEDUP_WINDOW",
		"log_level":               "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey hides all but the first and last four characters of a secret.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "bekal-bangsa")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.init_schema", true)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.bucket", "supply-photos")

	v.SetDefault("llm.base_url", "https://api.kolosal.ai/v1")
	v.SetDefault("llm.model", "Claude Sonnet 4.5")
	v.SetDefault("llm.max_tokens", 1500)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", "90s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.rescue_backend", "memory")
	v.SetDefault("cache.rescue_ttl", "0s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "bekal:rescue_menu")

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	v.SetDefault("expiry.warning_days", 7)
	v.SetDefault("expiry.kitchen_name", "SPPG Jakarta Pusat (Monas)")
	v.SetDefault("expiry.kitchen_lat", -6.175392)
	v.SetDefault("expiry.kitchen_lon", 106.827153)
	v.SetDefault("expiry.lookup_concurrency", 4)
	v.SetDefault("expiry.scan_interval", "0s")
	v.SetDefault("expiry.kitchen_recipient", "Admin Kitchen SPPG (Broadcast)")
	v.SetDefault("expiry.default_supplier_lat", -6.175392)
	v.SetDefault("expiry.default_supplier_lon", 106.827153)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("image.max_size_bytes", 10*1024*1024)
	v.SetDefault("image.jpeg_quality", 85)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}
	switch config.Cache.RescueBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown rescue cache backend %q", config.Cache.RescueBackend)
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.Expiry.WarningDays < 0 {
		return fmt.Errorf("invalid expiry warning days")
	}
	if config.Expiry.KitchenLat < -90 || config.Expiry.KitchenLat > 90 ||
		config.Expiry.KitchenLon < -180 || config.Expiry.KitchenLon > 180 {
		return fmt.Errorf("invalid kitchen coordinate")
	}
	if config.Expiry.LookupConcurrency <= 0 {
		return fmt.Errorf("invalid owner lookup concurrency")
	}

	if config.Storage.Enabled && (config.Storage.Endpoint == "" || config.Storage.Bucket == "") {
		return fmt.Errorf("storage endpoint and bucket are required when storage is enabled")
	}

	return nil
}
