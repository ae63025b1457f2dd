// Package observability provides instrumentation hooks for explore queries,
// the result cache and the API client.
//
// Libraries emit events through the registered hooks. The defaults do
// nothing; the serve command registers the Prometheus implementation from
// the prom subpackage at startup:
//
//	observability.SetQueryHooks(metrics)
//	observability.SetCacheHooks(metrics)
//	observability.SetHTTPHooks(metrics)
//
// Emitting:
//
//	observability.Query().OnQueryStart(ctx, mode)
//	// ... fetch ...
//	observability.Query().OnQueryComplete(ctx, mode, nodes, edges, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Query Hooks
// =============================================================================

// QueryHooks receives events from the explore executor.
type QueryHooks interface {
	// OnQueryStart records a fetch issued for a search mode.
	OnQueryStart(ctx context.Context, mode string)

	// OnQueryComplete records a finished fetch with the size of its graph.
	OnQueryComplete(ctx context.Context, mode string, nodes, edges int, duration time.Duration, err error)

	// OnQueryCancelled records a fetch aborted because its key was
	// superseded or its caller went away.
	OnQueryCancelled(ctx context.Context, mode string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the query result cache.
type CacheHooks interface {
	// OnCacheHit records a hit for a search mode.
	OnCacheHit(ctx context.Context, mode string)

	// OnCacheMiss records a miss for a search mode.
	OnCacheMiss(ctx context.Context, mode string)

	// OnCacheSet records a write of size bytes.
	OnCacheSet(ctx context.Context, mode string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API client.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopQueryHooks is a no-op implementation of QueryHooks.
type NoopQueryHooks struct{}

func (NoopQueryHooks) OnQueryStart(context.Context, string)                                    {}
func (NoopQueryHooks) OnQueryComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopQueryHooks) OnQueryCancelled(context.Context, string)                                {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	queryHooks    QueryHooks    = NoopQueryHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetQueryHooks registers query hooks. A nil h is ignored.
func SetQueryHooks(h QueryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		queryHooks = h
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Query returns the registered query hooks.
func Query() QueryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return queryHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	queryHooks = NoopQueryHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
