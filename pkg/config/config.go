// Package config loads houndview settings.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. the TOML file ($XDG_CONFIG_HOME/houndview/config.toml unless a path is given)
//  3. HOUNDVIEW_* environment variables (HOUNDVIEW_API_TOKEN_ID sets api.token_id)
//  4. command line flags that were explicitly set (--api-url sets api.url)
//
// The merged result is validated before it is returned.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/houndview/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "houndview"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete configuration.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Cache   CacheConfig   `koanf:"cache"`
	Redis   RedisConfig   `koanf:"redis"`
	Neo4j   Neo4jConfig   `koanf:"neo4j"`
	Server  ServerConfig  `koanf:"server"`
	Explore ExploreConfig `koanf:"explore"`
}

// APIConfig addresses the REST backend.
type APIConfig struct {
	URL       string        `koanf:"url" validate:"omitempty,url"`
	Token     string        `koanf:"token"`
	TokenID   string        `koanf:"token_id" validate:"required_with=TokenKey"`
	TokenKey  string        `koanf:"token_key" validate:"required_with=TokenID"`
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`
	RateLimit float64       `koanf:"rate_limit" validate:"gte=0"`
}

// CacheConfig selects the query result cache.
type CacheConfig struct {
	Backend string        `koanf:"backend" validate:"oneof=file redis none"`
	Dir     string        `koanf:"dir"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

// RedisConfig is used when the cache backend is redis.
type RedisConfig struct {
	Addr     string `koanf:"addr" validate:"omitempty,hostname_port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Prefix   string `koanf:"prefix"`
}

// Neo4jConfig enables direct graph-item fetches when URI is set.
type Neo4jConfig struct {
	URI      string `koanf:"uri" validate:"omitempty,uri"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// ServerConfig configures "houndview serve".
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// ExploreConfig tunes query execution.
type ExploreConfig struct {
	Retry int `koanf:"retry" validate:"gte=0,lte=10"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API:     APIConfig{Timeout: 30 * time.Second},
		Cache:   CacheConfig{Backend: BackendFile, Dir: DefaultCacheDir(), TTL: 10 * time.Minute},
		Redis:   RedisConfig{Prefix: AppName + ":"},
		Neo4j:   Neo4jConfig{Database: "neo4j"},
		Server:  ServerConfig{Addr: "127.0.0.1:8484"},
		Explore: ExploreConfig{Retry: 2},
	}
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName, "config.toml")
}

// DefaultCacheDir is the file cache location.
func DefaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".cache", AppName)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-section rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	if c.Cache.Backend == BackendRedis && c.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "redis.addr is required when cache.backend is redis")
	}
	return nil
}

// HasAPI reports whether a backend URL is configured.
func (c Config) HasAPI() bool { return c.API.URL != "" }
