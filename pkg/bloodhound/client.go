package bloodhound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/httputil"
	"github.com/matzehuels/houndview/pkg/observability"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 256 << 20

// Options configures [New].
type Options struct {
	BaseURL string

	// Token is a session JWT sent as a bearer token.
	Token string

	// TokenID and TokenKey sign requests with bhesignature. They take
	// precedence over Token.
	TokenID  string
	TokenKey string

	Timeout time.Duration

	// RateLimit caps requests per second. Zero disables the limit.
	RateLimit float64

	UserAgent string

	// HTTPClient replaces the default client. Timeout and RateLimit are
	// ignored when set.
	HTTPClient *http.Client
}

// Client talks to one API instance.
type Client struct {
	http    *http.Client
	base    *url.URL
	signer  signer
	agent   string
	now     func() time.Time
	headers map[string]string
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	if err := errors.ValidateURL(opts.BaseURL); err != nil {
		return nil, err
	}
	base, _ := url.Parse(strings.TrimRight(opts.BaseURL, "/"))

	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient(opts.Timeout, opts.RateLimit)
	}

	var s signer = anonymous{}
	switch {
	case opts.TokenID != "" && opts.TokenKey != "":
		s = hmacSigner{id: opts.TokenID, key: opts.TokenKey}
	case opts.Token != "":
		s = bearer{token: opts.Token}
	}

	agent := opts.UserAgent
	if agent == "" {
		agent = "houndview"
	}
	return &Client{
		http:    hc,
		base:    base,
		signer:  s,
		agent:   agent,
		now:     time.Now,
		headers: map[string]string{"Accept": "application/json", "Prefer": "wait=30"},
	}, nil
}

func newHTTPClient(timeout time.Duration, perSecond float64) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: httputil.RateLimited(http.DefaultTransport, httputil.NewLimiter(perSecond)),
	}
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

// =============================================================================
// Explore endpoints
// =============================================================================

// Search runs an exact-match node search.
func (c *Client) Search(ctx context.Context, term string) ([]byte, error) {
	q := url.Values{"query": {term}, "type": {"exact"}}
	return c.get(ctx, "/api/v2/graph-search", q)
}

// ShortestPath finds the shortest path between two object ids.
// relationshipKinds is an "in:" or "nin:" edge-type filter.
func (c *Client) ShortestPath(ctx context.Context, start, end, relationshipKinds string) ([]byte, error) {
	q := url.Values{"start_node": {start}, "end_node": {end}}
	if relationshipKinds != "" {
		q.Set("relationship_kinds", relationshipKinds)
	}
	return c.get(ctx, "/api/v2/graphs/shortest-path", q)
}

type cypherRequest struct {
	Query             string `json:"query"`
	IncludeProperties bool   `json:"include_properties"`
}

// Cypher runs a raw cypher query.
func (c *Client) Cypher(ctx context.Context, query string, includeProperties bool) ([]byte, error) {
	body, err := json.Marshal(cypherRequest{Query: query, IncludeProperties: includeProperties})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/v2/graphs/cypher", nil, body)
}

// EdgeComposition fetches the graph that composes a post-processed edge.
func (c *Client) EdgeComposition(ctx context.Context, source, target int64, edgeType string) ([]byte, error) {
	return c.get(ctx, "/api/v2/graphs/edge-composition", edgeQuery(source, target, edgeType))
}

// ACLInheritance fetches the inheritance path of an ACL edge.
func (c *Client) ACLInheritance(ctx context.Context, source, target int64, edgeType string) ([]byte, error) {
	return c.get(ctx, "/api/v2/graphs/acl-inheritance", edgeQuery(source, target, edgeType))
}

// EntitySection fetches one section of an entity, as a table page or a
// graph.
func (c *Client) EntitySection(ctx context.Context, ep explore.Endpoint, id string, page explore.Page) ([]byte, error) {
	return c.get(ctx, ep.Path(id), ep.Query(id, page))
}

func edgeQuery(source, target int64, edgeType string) url.Values {
	return url.Values{
		"source_node": {strconv.FormatInt(source, 10)},
		"target_node": {strconv.FormatInt(target, 10)},
		"edge_type":   {edgeType},
	}
}

// =============================================================================
// Other endpoints
// =============================================================================

// Version is the answer of GET /api/version.
type Version struct {
	API struct {
		Current    string `json:"current_version"`
		Deprecated string `json:"deprecated_version"`
	} `json:"API"`
	Server string `json:"server_version"`
}

// Version reports the server and API versions. It needs no
// authentication and doubles as a reachability check.
func (c *Client) Version(ctx context.Context) (Version, error) {
	raw, err := c.get(ctx, "/api/version", nil)
	if err != nil {
		return Version{}, err
	}
	var env struct {
		Data Version `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode version")
	}
	return env.Data, nil
}

// =============================================================================
// Request plumbing
// =============================================================================

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, q, nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte) ([]byte, error) {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	u.Path, _ = url.PathUnescape(u.RawPath)
	u.RawQuery = q.Encode()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.signer.sign(req, body, c.now())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, u.Host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, u.Host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", path))
	}
	if err := checkStatus(method, path, resp.StatusCode, data, requestID); err != nil {
		return nil, err
	}
	return data, nil
}

func checkStatus(method, path string, status int, body []byte, requestID string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg, rid := parseErrorBody(body)
	if rid == "" {
		rid = requestID
	}
	te := &TransportError{Method: method, Path: path, Status: status, Message: msg, RequestID: rid}
	if status >= 500 || status == http.StatusTooManyRequests {
		return httputil.Retryable(te)
	}
	return te
}

var _ explore.Transport = (*Client)(nil)

// String describes the client for logs.
func (c *Client) String() string { return fmt.Sprintf("bloodhound(%s)", c.base.Host) }
