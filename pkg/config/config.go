// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defines configuration structures for server, database, cache, browser and icons

package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig

	// Database contains SQLite storage configuration
	Database DatabaseConfig

	// Cache contains cache configuration
	Cache CacheConfig

	// Browser contains headless browser configuration
	Browser BrowserConfig

	// Icons contains feed icon cache configuration
	Icons IconConfig

	// LogLevel controls logging verbosity (debug/info/warn/error)
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// RefreshTimer is the interval in seconds for feed refresh
	RefreshTimer int
}

// DatabaseConfig holds SQLite storage configuration
type DatabaseConfig struct {
	// Path is the SQLite database file path
	Path string
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (redis/memory/sqlite)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// Memory contains in-memory cache configuration
	Memory MemoryConfig

	// SQLite contains SQLite cache configuration
	SQLite SQLiteCacheConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// MemoryConfig holds in-memory cache configuration
type MemoryConfig struct {
	// DefaultExpiration is the default TTL for cache entries in seconds
	DefaultExpiration int
}

// SQLiteCacheConfig holds SQLite cache configuration
type SQLiteCacheConfig struct {
	// Path is the cache database file path
	Path string
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	// Enabled controls whether the headless browser backend starts
	Enabled bool

	// PoolSize is the number of concurrently rendered pages
	PoolSize int

	// ExecPath overrides the Chrome executable location
	ExecPath string
}

// IconConfig holds feed icon cache configuration
type IconConfig struct {
	// Dir is the directory icon entries are written to
	Dir string

	// TTLDays is how long a cached icon stays fresh
	TTLDays int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8000"),
			RefreshTimer: getEnvAsIntOrDefault("REFRESH_TIMER", 900),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("DATABASE_PATH", "yana.db"),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			Memory: MemoryConfig{
				DefaultExpiration: getEnvAsIntOrDefault("MEMORY_CACHE_EXPIRATION", 3600),
			},
			SQLite: SQLiteCacheConfig{
				Path: getEnvOrDefault("CACHE_DATABASE_PATH", "yana-cache.db"),
			},
		},
		Browser: BrowserConfig{
			Enabled:  getEnvAsBoolOrDefault("BROWSER_ENABLED", true),
			PoolSize: getEnvAsIntOrDefault("BROWSER_POOL_SIZE", 4),
			ExecPath: getEnvOrDefault("BROWSER_EXEC_PATH", ""),
		},
		Icons: IconConfig{
			Dir:     getEnvOrDefault("ICON_CACHE_DIR", "icons"),
			TTLDays: getEnvAsIntOrDefault("ICON_CACHE_TTL_DAYS", 7),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable as bool or a default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	if c.Server.RefreshTimer < 1 {
		return errors.New("refresh timer must be at least 1 second")
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}

	switch c.Cache.Type {
	case "redis":
		if c.Cache.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis cache")
		}
	case "sqlite":
		if c.Cache.SQLite.Path == "" {
			return errors.New("cache database path cannot be empty when using sqlite cache")
		}
	case "memory":
	default:
		return errors.New("cache type must be 'redis', 'memory' or 'sqlite'")
	}

	if c.Browser.Enabled && c.Browser.PoolSize < 1 {
		return errors.New("browser pool size must be at least 1")
	}

	return nil
}
