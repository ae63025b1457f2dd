package bloodhound

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/httputil"
	"github.com/matzehuels/houndview/pkg/observability"
	"github.com/matzehuels/houndview/pkg/params"
)

type captured struct {
	method string
	path   string
	query  map[string]string
	header http.Header
	body   []byte
}

// recorder serves status and body for every request and keeps the last
// request it saw.
func recorder(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = map[string]string{}
		for k := range r.URL.Query() {
			got.query[k] = r.URL.Query().Get(k)
		}
		got.header = r.Header.Clone()
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newClient(t *testing.T, opts Options) *Client {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "http://"} {
		_, err := New(Options{BaseURL: u})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), u)
	}
}

func TestExploreEndpoints(t *testing.T) {
	srv, got := recorder(t, http.StatusOK, `{"data":{}}`)
	c := newClient(t, Options{BaseURL: srv.URL + "/", Token: "jwt"})
	ctx := context.Background()

	_, err := c.Search(ctx, "alice@corp")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/graph-search", got.path)
	assert.Equal(t, map[string]string{"query": "alice@corp", "type": "exact"}, got.query)
	assert.Equal(t, "Bearer jwt", got.header.Get("Authorization"))
	assert.NotEmpty(t, got.header.Get("X-Request-Id"))

	_, err = c.ShortestPath(ctx, "S-1", "S-2", "in:MemberOf,AdminTo")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/graphs/shortest-path", got.path)
	assert.Equal(t, map[string]string{
		"start_node":         "S-1",
		"end_node":           "S-2",
		"relationship_kinds": "in:MemberOf,AdminTo",
	}, got.query)

	_, err = c.EdgeComposition(ctx, 1, 2, "ADCSESC1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/graphs/edge-composition", got.path)
	assert.Equal(t, map[string]string{"source_node": "1", "target_node": "2", "edge_type": "ADCSESC1"}, got.query)

	_, err = c.ACLInheritance(ctx, 3, 4, "GenericAll")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/graphs/acl-inheritance", got.path)

	_, err = c.EntitySection(ctx, explore.Endpoint{Entity: "users", Related: "sessions"}, "S-1", explore.Page{Graph: true})
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/users/S-1/sessions", got.path)
	assert.Equal(t, map[string]string{"type": "graph"}, got.query)
}

func TestCypherPostsBody(t *testing.T) {
	srv, got := recorder(t, http.StatusOK, `{"data":{"nodes":{},"edges":[]}}`)
	c := newClient(t, Options{BaseURL: srv.URL})

	_, err := c.Cypher(context.Background(), "match (n) return n", true)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Empty(t, got.header.Get("Authorization"))

	var req cypherRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	assert.Equal(t, cypherRequest{Query: "match (n) return n", IncludeProperties: true}, req)
}

func TestSignedRequests(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		call func(*Client) error
		want string
	}{
		{
			name: "get",
			call: func(c *Client) error {
				_, err := c.Version(context.Background())
				return err
			},
			want: "qa10FhosDQU8xYyBi5eeWLNDHAaxlsKt5SSQ5JSETeg=",
		},
		{
			name: "post",
			call: func(c *Client) error {
				_, err := c.Cypher(context.Background(), "match (n) return n", true)
				return err
			},
			want: "1RljAnQS6dVVghmQeT8TaZYyZjcx89iTVnN7kW0iyfk=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := recorder(t, http.StatusOK, `{"data":{}}`)
			c := newClient(t, Options{BaseURL: srv.URL, TokenID: "tid", TokenKey: "secret", Token: "ignored"})
			c.now = func() time.Time { return fixed }

			require.NoError(t, tt.call(c))
			assert.Equal(t, "bhesignature tid", got.header.Get("Authorization"))
			assert.Equal(t, "2026-01-02T03:04:05Z", got.header.Get("RequestDate"))
			assert.Equal(t, tt.want, got.header.Get("Signature"))
		})
	}
}

func TestVersion(t *testing.T) {
	srv, _ := recorder(t, http.StatusOK,
		`{"data":{"API":{"current_version":"v2","deprecated_version":"v1"},"server_version":"v7.1.0"}}`)
	c := newClient(t, Options{BaseURL: srv.URL})

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", v.API.Current)
	assert.Equal(t, "v7.1.0", v.Server)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		wantCode  errors.Code
		retryable bool
	}{
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"http_status":404,"request_id":"r-1","errors":[{"context":"","message":"path not found"}]}`,
			wantMsg:  "path not found",
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"http_status":400,"errors":[{"message":"syntax error"},{"message":"near MATCH"}]}`,
			wantMsg:  "syntax error; near MATCH",
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "unauthorized plain text",
			status:   http.StatusUnauthorized,
			body:     "token expired\n",
			wantMsg:  "token expired",
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:      "unavailable html",
			status:    http.StatusServiceUnavailable,
			body:      "<html>down</html>",
			wantCode:  errors.ErrCodeNetwork,
			retryable: true,
		},
		{
			name:      "too many requests",
			status:    http.StatusTooManyRequests,
			body:      "",
			wantCode:  errors.ErrCodeRateLimited,
			retryable: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := recorder(t, tt.status, tt.body)
			c := newClient(t, Options{BaseURL: srv.URL})

			_, err := c.Search(context.Background(), "x")
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.status, te.HTTPStatus())
			assert.Equal(t, tt.wantMsg, te.ServerMessage())
			assert.Equal(t, tt.wantCode, te.Code())
			assert.NotEmpty(t, te.RequestID)
			assert.Equal(t, tt.retryable, httputil.IsRetryable(err))
		})
	}
}

func TestCancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := newClient(t, Options{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, httputil.IsRetryable(err))
}

type httpRecorder struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	requests []string
	statuses []int
}

func (h *httpRecorder) OnRequest(_ context.Context, method, _, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *httpRecorder) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	h := &httpRecorder{}
	observability.SetHTTPHooks(h)
	t.Cleanup(observability.Reset)

	srv, _ := recorder(t, http.StatusNotFound, "")
	c := newClient(t, Options{BaseURL: srv.URL})
	_, _ = c.Search(context.Background(), "x")

	assert.Equal(t, []string{"GET /api/v2/graph-search"}, h.requests)
	assert.Equal(t, []int{404}, h.statuses)
}

func TestClientDrivesExecutor(t *testing.T) {
	srv, _ := recorder(t, http.StatusNotFound,
		`{"http_status":404,"errors":[{"message":"no path"}]}`)
	c := newClient(t, Options{BaseURL: srv.URL})
	e := explore.NewExecutor(c, nil, nil, nil)

	_, err := e.Execute(context.Background(), explore.Route(params.State{}.PathSearch("S-1", "S-2")))
	var qe *explore.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "NoPathFound", qe.Message.Key)
}
