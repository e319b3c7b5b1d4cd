package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects where the catalog and history live
type StorageConfig struct {
	Type     string `mapstructure:"type"` // "badger" or "bolt"
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"` // badger only
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Fetch int `mapstructure:"fetch"`  // remote fetches per hour
}

// AnalysisConfig tunes scoring output and the job runner
type AnalysisConfig struct {
	ContextWords       int           `mapstructure:"context_words"`
	MaxContexts        int           `mapstructure:"max_contexts"`
	WorkerPoolSize     int           `mapstructure:"worker_pool_size"`
	MaxDocumentBytes   int64         `mapstructure:"max_document_bytes"`
	JobRetention       time.Duration `mapstructure:"job_retention"`
	EnableDebugLogging bool          `mapstructure:"enable_debug_logging"`
}

// FetchConfig holds settings for downloading remote documents
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RespectRobots bool          `mapstructure:"respect_robots"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; an empty path searches
// the default locations.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/doclens/")
	}

	// Environment variable settings: DOCLENS_SERVER_PORT -> server.port
	v.SetEnvPrefix("DOCLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional unless one was named explicitly
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.type", "badger")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.in_memory", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.fetch", 120)

	// Analysis defaults
	v.SetDefault("analysis.context_words", 10)
	v.SetDefault("analysis.max_contexts", 3)
	v.SetDefault("analysis.worker_pool_size", 4)
	v.SetDefault("analysis.max_document_bytes", 20<<20)
	v.SetDefault("analysis.job_retention", "1h")
	v.SetDefault("analysis.enable_debug_logging", false)

	// Fetch defaults
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", "DocLens/1.0")
	v.SetDefault("fetch.respect_robots", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Storage.Type != "badger" && config.Storage.Type != "bolt" {
		return fmt.Errorf("storage type must be 'badger' or 'bolt', got: %s", config.Storage.Type)
	}

	if config.Storage.Path == "" && !(config.Storage.Type == "badger" && config.Storage.InMemory) {
		return fmt.Errorf("storage path is required (set DOCLENS_STORAGE_PATH)")
	}

	if config.Storage.Type == "bolt" && config.Storage.InMemory {
		return fmt.Errorf("in-memory storage is only supported by badger")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Analysis.WorkerPoolSize <= 0 {
		return fmt.Errorf("analysis worker pool size must be positive, got: %d", config.Analysis.WorkerPoolSize)
	}

	if config.Analysis.ContextWords <= 0 {
		return fmt.Errorf("analysis context words must be positive, got: %d", config.Analysis.ContextWords)
	}

	if config.Analysis.MaxContexts < 1 || config.Analysis.MaxContexts > 3 {
		return fmt.Errorf("analysis max contexts must be between 1 and 3, got: %d", config.Analysis.MaxContexts)
	}

	if config.Analysis.MaxDocumentBytes <= 0 {
		return fmt.Errorf("analysis max document bytes must be positive, got: %d", config.Analysis.MaxDocumentBytes)
	}

	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from ./.env into the environment.
// A missing file is not an error; variables already set are kept.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
