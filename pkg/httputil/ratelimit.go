package httputil

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimited wraps next so that each request first waits on limiter.
// The wait honours the request context. A nil limiter returns next
// unchanged.
func RateLimited(next http.RoundTripper, limiter *rate.Limiter) http.RoundTripper {
	if limiter == nil {
		return next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &limitedTransport{next: next, limiter: limiter}
}

// NewLimiter allows perSecond requests with a burst of the same size.
// perSecond <= 0 disables limiting and returns nil.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
}

type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
