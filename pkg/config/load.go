package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/houndview/pkg/errors"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "HOUNDVIEW_"

// Loaded is a validated configuration plus the file it came from.
type Loaded struct {
	Config
	// File is the config file that was read, or "" when none existed.
	File string
}

// Load merges defaults, the file at path, the environment and flags.
// An empty path reads [DefaultPath] when it exists. An explicit path
// that does not exist is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(Default()), "."), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load defaults")
	}

	file, err := loadFile(k, path)
	if err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := flagKey(f.Name)
			if key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, File: file}, nil
}

func loadFile(k *koanf.Koanf, path string) (string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return "", nil
		}
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
	}
	return path, nil
}

// envKey maps HOUNDVIEW_API_TOKEN_ID to api.token_id. Section names
// contain no underscores, so only the first one separates.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}

// flagKey maps --api-token-id to api.token_id. Flags outside a known
// section are not configuration and map to "".
func flagKey(name string) string {
	section, field, ok := strings.Cut(name, "-")
	if !ok || !sections[section] {
		return ""
	}
	return section + "." + strings.ReplaceAll(field, "-", "_")
}

var sections = map[string]bool{
	"api": true, "cache": true, "redis": true, "neo4j": true, "server": true, "explore": true,
}

// defaultsMap flattens c into dotted keys for the confmap provider.
func defaultsMap(c Config) map[string]any {
	return map[string]any{
		"api.url":        c.API.URL,
		"api.token":      c.API.Token,
		"api.token_id":   c.API.TokenID,
		"api.token_key":  c.API.TokenKey,
		"api.timeout":    c.API.Timeout.String(),
		"api.rate_limit": c.API.RateLimit,
		"cache.backend":  c.Cache.Backend,
		"cache.dir":      c.Cache.Dir,
		"cache.ttl":      c.Cache.TTL.String(),
		"redis.addr":     c.Redis.Addr,
		"redis.password": c.Redis.Password,
		"redis.db":       c.Redis.DB,
		"redis.prefix":   c.Redis.Prefix,
		"neo4j.uri":      c.Neo4j.URI,
		"neo4j.user":     c.Neo4j.User,
		"neo4j.password": c.Neo4j.Password,
		"neo4j.database": c.Neo4j.Database,
		"server.addr":    c.Server.Addr,
		"explore.retry":  c.Explore.Retry,
	}
}
