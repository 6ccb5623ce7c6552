package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Redis   RedisConfig
	Store   StoreConfig
	Logging LoggingConfig
}

type APIConfig struct {
	// BaseURL is trimmed and stripped of a trailing slash at load time.
	// Empty means same origin: paths are sent root-relative.
	BaseURL string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type StoreConfig struct {
	// Backend selects the credential store implementation: "redis" shares
	// credentials across client contexts, "memory" keeps them process-local.
	Backend string
}

type LoggingConfig struct {
	Level string
	File  string
}

const (
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: NormalizeBaseURL(getEnv("NETPLUS_API_BASE_URL", "")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Store: StoreConfig{
			Backend: getEnv("NETPLUS_STORE_BACKEND", StoreBackendRedis),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendRedis, StoreBackendMemory:
	default:
		return fmt.Errorf("NETPLUS_STORE_BACKEND must be %q or %q, got %q",
			StoreBackendRedis, StoreBackendMemory, c.Store.Backend)
	}
	if c.Store.Backend == StoreBackendRedis && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required for the redis store backend")
	}
	return nil
}

// NormalizeBaseURL trims surrounding whitespace and at most one trailing
// slash so that path joining always produces exactly one separator.
func NormalizeBaseURL(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), "/")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
