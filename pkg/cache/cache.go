// Package cache stores explore query results between runs.
//
// A [Cache] holds opaque bytes under string keys with an optional TTL.
// Three backends are provided:
//
//   - [FileCache]: one JSON file per key under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP service
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// Keys are built by a [Keyer] so that every part of a query key is hashed
// into a fixed-length, filesystem-safe name.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and
	// not expired. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// QueryKey returns the key for an explore query identified by the
	// ordered parts of its query key.
	QueryKey(parts ...string) string

	// HTTPKey returns the key for a raw API response.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer hashes query parts with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// QueryKey returns "query:<sha256 of parts>".
func (DefaultKeyer) QueryKey(parts ...string) string {
	args := make([]any, len(parts))
	for i, p := range parts {
		args[i] = p
	}
	return hashKey("query", args...)
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
