// Package httputil provides the transport plumbing shared by the API
// client: retry with backoff and client-side rate limiting.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return client.do(ctx, req)
//	})
//
// Only failures the caller marked with [Retryable] are retried. Network
// errors, 5xx and 429 responses are marked by the API client; 4xx
// answers are returned at once.
//
// # Rate limiting
//
// [RateLimited] wraps an http.RoundTripper with a token bucket from
// golang.org/x/time/rate:
//
//	rt := httputil.RateLimited(http.DefaultTransport, httputil.NewLimiter(10))
package httputil
