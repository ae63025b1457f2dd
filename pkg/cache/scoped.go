package cache

// ScopedKeyer wraps a Keyer with a prefix so that several API instances
// can share one backend without mixing results. The CLI scopes keys by
// the configured API URL.
//
//	keyer := cache.NewScopedKeyer(nil, "https://bh.example.com|")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// QueryKey generates a prefixed query key.
func (k *ScopedKeyer) QueryKey(parts ...string) string {
	return k.prefix + k.inner.QueryKey(parts...)
}

// HTTPKey generates a prefixed response key.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
