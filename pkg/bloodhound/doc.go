// Package bloodhound is the HTTP client for the BloodHound API endpoints
// the explore page uses.
//
// A [Client] implements explore.Transport. It signs each request, tags it
// with an X-Request-Id, waits on an optional rate limiter, and turns non-2xx
// answers into [*TransportError]. 5xx and 429 answers are marked retryable
// for httputil.Retry.
//
// # Authentication
//
// Two schemes are supported. A session JWT is sent as a bearer token:
//
//	c, err := bloodhound.New(bloodhound.Options{BaseURL: url, Token: jwt})
//
// An API token id and key sign each request with the bhesignature scheme:
//
//	c, err := bloodhound.New(bloodhound.Options{
//	    BaseURL:  url,
//	    TokenID:  id,
//	    TokenKey: key,
//	})
package bloodhound
