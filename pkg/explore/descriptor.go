// Package explore turns an explore location into a graph query and runs it.
//
// [Route] is a pure function from a [params.State] to a [Descriptor]: the
// mode, whether a query should run at all, the key that identifies its
// result, and the fetch to run. [Executor] runs descriptors against a
// [Transport] with last-key-wins cancellation, result caching and retry.
//
//	d := explore.Route(state)
//	res, err := exec.Execute(ctx, d)
//	var qe *explore.QueryError
//	if errors.As(err, &qe) {
//	    notify(qe.Message)
//	}
package explore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/params"
)

// Transport issues the API calls a fetch needs. Each method returns the
// raw response body; decoding belongs to the fetch.
type Transport interface {
	Search(ctx context.Context, term string) ([]byte, error)
	ShortestPath(ctx context.Context, start, end, relationshipKinds string) ([]byte, error)
	Cypher(ctx context.Context, query string, includeProperties bool) ([]byte, error)
	EdgeComposition(ctx context.Context, source, target int64, edgeType string) ([]byte, error)
	ACLInheritance(ctx context.Context, source, target int64, edgeType string) ([]byte, error)
	EntitySection(ctx context.Context, ep Endpoint, id string, page Page) ([]byte, error)
}

// QueryKey identifies a query result. Two descriptors with equal keys
// fetch the same thing.
type QueryKey []string

// String returns the canonical form of k. Parts are JSON quoted, so
// separators inside a part cannot collide.
func (k QueryKey) String() string {
	if len(k) == 0 {
		return ""
	}
	b, _ := json.Marshal([]string(k))
	return string(b)
}

// Equal reports whether both keys have the same parts.
func (k QueryKey) Equal(o QueryKey) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i] != o[i] {
			return false
		}
	}
	return true
}

// Message is a user-facing notification for a failed query.
type Message struct {
	Text string `json:"message"`
	Key  string `json:"key"`
}

// UnknownErrorMessage is the text shown when no mapper knows the error.
const UnknownErrorMessage = "An unknown error occurred."

// FetchFunc runs a query and returns its decoded result.
type FetchFunc func(ctx context.Context, t Transport) (Result, error)

// Descriptor is the routed form of an explore location.
type Descriptor struct {
	Mode    params.SearchType
	Enabled bool
	Key     QueryKey
	Fetch   FetchFunc
	// Retry is the number of extra attempts on retryable transport errors.
	Retry          int
	RefetchOnFocus bool
	ErrorMessage   func(error) Message
}

// WithRetry returns d with its retry count replaced by n. Modes that do
// not retry keep zero.
func (d Descriptor) WithRetry(n int) Descriptor {
	if d.Retry > 0 && n >= 0 {
		d.Retry = n
	}
	return d
}

// Result is the outcome of one query. Graph queries fill Graph, section
// table fetches fill Table.
type Result struct {
	Key    QueryKey          `json:"key"`
	Mode   params.SearchType `json:"mode"`
	Graph  graph.GraphData   `json:"graph"`
	Table  *SectionPage      `json:"table,omitempty"`
	Cached bool              `json:"-"`
}

// IsZero reports whether r is the empty result of a disabled query.
func (r Result) IsZero() bool { return len(r.Key) == 0 }

// SectionPage is one page of an entity section in table form.
type SectionPage struct {
	Count int              `json:"count"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
	Data  []map[string]any `json:"data"`
}

func key(mode params.SearchType, parts ...string) QueryKey {
	return append(QueryKey{"explore", string(mode)}, parts...)
}

func modeLabel(m params.SearchType) string {
	if m == params.SearchTypeNone {
		return "none"
	}
	return strings.ToLower(string(m))
}
