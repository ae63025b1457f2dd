package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/observability"
	"github.com/matzehuels/houndview/pkg/observability/prom"
	"github.com/matzehuels/houndview/pkg/params"
)

const (
	searchPayload = `{"data":{"1":{"label":{"text":"ALICE@CORP"},"data":{"nodetype":"User","objectid":"S-1"}}}}`
	pathPayload   = `{"data":{"nodes":{"1":{"label":"ALICE@CORP","kind":"User","objectId":"S-1"},"2":{"label":"ADMINS@CORP","kind":"Group","objectId":"S-2"}},"edges":[{"source":"1","target":"2","label":"MemberOf","kind":"MemberOf"}]}}`
	tablePayload  = `{"count":1,"skip":0,"limit":128,"data":[{"name":"SRV01"}]}`
)

type statusErr struct {
	code int
	msg  string
}

func (e *statusErr) Error() string         { return e.msg }
func (e *statusErr) HTTPStatus() int       { return e.code }
func (e *statusErr) ServerMessage() string { return e.msg }

type stubTransport struct {
	err     error
	page    explore.Page
	pathArg string
}

func (s *stubTransport) Search(context.Context, string) ([]byte, error) {
	return []byte(searchPayload), s.err
}

func (s *stubTransport) ShortestPath(_ context.Context, _, _, kinds string) ([]byte, error) {
	s.pathArg = kinds
	if s.err != nil {
		return nil, s.err
	}
	return []byte(pathPayload), nil
}

func (s *stubTransport) Cypher(context.Context, string, bool) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(pathPayload), nil
}

func (s *stubTransport) EdgeComposition(context.Context, int64, int64, string) ([]byte, error) {
	return []byte(`{"data":{"nodes":{},"edges":[]}}`), nil
}

func (s *stubTransport) ACLInheritance(context.Context, int64, int64, string) ([]byte, error) {
	return []byte(pathPayload), nil
}

func (s *stubTransport) EntitySection(_ context.Context, _ explore.Endpoint, _ string, page explore.Page) ([]byte, error) {
	s.page = page
	if page.Graph {
		return []byte(pathPayload), nil
	}
	return []byte(tablePayload), nil
}

type stubItems struct{}

func (stubItems) FetchItem(_ context.Context, id string) (graph.GraphData, error) {
	if id != "1" {
		return graph.GraphData{}, errors.New(errors.ErrCodeNotFound, "item %s not found", id)
	}
	g := graph.NewGraphData()
	g.Nodes["1"] = graph.NodeRecord{Label: "ALICE@CORP", Kind: "User"}
	return g, nil
}

func newTestServer(t *testing.T, tr explore.Transport) *httptest.Server {
	t.Helper()
	s := New(Options{Transport: tr, Items: stubItems{}, Gatherer: prometheus.NewRegistry()})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})
	var body map[string]string
	resp := get(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestExploreNodeSearch(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})
	q := params.State{}.NodeSearch("alice").Encode()

	var body exploreResponse
	resp := get(t, srv.URL+"/api/explore?"+q, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, params.SearchTypeNode, body.Mode)
	require.NotNil(t, body.Data)
	assert.Equal(t, "ALICE@CORP", body.Data.Nodes["1"].Label)
	assert.Nil(t, body.Table)
}

func TestExploreDisabled(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})
	resp := get(t, srv.URL+"/api/explore?searchType=pathfinding&primarySearch=S-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExplorePathFilters(t *testing.T) {
	tr := &stubTransport{}
	srv := newTestServer(t, tr)
	q := params.State{}.PathSearch("S-1", "S-2").WithPathFilters([]string{"MemberOf", "AdminTo"}, true).Encode()

	resp := get(t, srv.URL+"/api/explore?"+q, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in:MemberOf,AdminTo", tr.pathArg)
}

func TestExploreErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		query   string
		status  int
		wantKey string
	}{
		{
			name:    "path not found",
			err:     &statusErr{code: 404},
			query:   params.State{}.PathSearch("S-1", "S-2").Encode(),
			status:  http.StatusNotFound,
			wantKey: "NoPathFound",
		},
		{
			name:    "cypher rejected",
			err:     &statusErr{code: 400, msg: "syntax error"},
			query:   params.State{}.CypherSearchFor("match (n) return n").Encode(),
			status:  http.StatusBadRequest,
			wantKey: "CypherQueryError",
		},
		{
			name:    "upstream failure",
			err:     &statusErr{code: 500, msg: "boom"},
			query:   params.State{}.CypherSearchFor("match (n) return n").Encode(),
			status:  http.StatusBadGateway,
			wantKey: "CypherQueryError",
		},
		{
			name:    "invalid cypher encoding",
			query:   "searchType=cypher&cypherSearch=%25%25%25",
			status:  http.StatusBadRequest,
			wantKey: "CypherQueryDecodeError",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubTransport{err: tt.err})
			var body errorResponse
			resp := get(t, srv.URL+"/api/explore?"+tt.query, &body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.wantKey, body.Key)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestExploreEmptyComposition(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})
	q := params.State{}.EdgeSearch(params.SearchTypeComposition, "1_ADCSESC1_2").Encode()

	var body errorResponse
	resp := get(t, srv.URL+"/api/explore?"+q, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "EdgeCompositionEmpty", body.Key)
}

func TestSectionTable(t *testing.T) {
	tr := &stubTransport{}
	srv := newTestServer(t, tr)
	q := params.State{}.RelationshipSearch("S-1", "Computer", "Sessions").Encode()

	var body exploreResponse
	resp := get(t, srv.URL+"/api/explore/table?skip=10&limit=5&"+q, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body.Table)
	assert.Equal(t, 1, body.Table.Count)
	assert.Nil(t, body.Data)
	assert.Equal(t, explore.Page{Skip: 10, Limit: 5}, tr.page)
}

func TestItem(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})

	var edge itemResponse
	resp := get(t, srv.URL+"/api/items/12_MemberOf_40", &edge)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "edge", string(edge.Type))
	assert.Equal(t, "edge-by-endpoints", edge.Form)
	assert.Equal(t, "MemberOf", edge.EdgeType)
	assert.Contains(t, edge.CypherQuery, "ID(s) = 12 AND ID(t) = 40")
	assert.Nil(t, edge.Graph)

	var node itemResponse
	resp = get(t, srv.URL+"/api/items/1?fetch=true", &node)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, node.Graph)
	assert.Len(t, node.Graph.Nodes, 1)

	var missing errorResponse
	resp = get(t, srv.URL+"/api/items/2?fetch=true", &missing)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(errors.ErrCodeNotFound), missing.Key)
}

func TestItemFetchWithoutStore(t *testing.T) {
	s := New(Options{Transport: &stubTransport{}, Gatherer: prometheus.NewRegistry()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp := get(t, srv.URL+"/api/items/1?fetch=true", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestEdgeFilters(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})

	var all filterResponse
	get(t, srv.URL+"/api/edge-filters", &all)
	assert.True(t, all.Default)
	assert.NotEmpty(t, all.Categories)

	var narrowed filterResponse
	get(t, srv.URL+"/api/edge-filters?pathFilters=MemberOf&q=dcfor", &narrowed)
	assert.False(t, narrowed.Default)
	assert.Equal(t, []string{"MemberOf"}, narrowed.Selected)
	assert.Equal(t, "in:MemberOf", narrowed.Filter)
	require.Len(t, narrowed.Categories, 1)
	ad := narrowed.Categories[0]
	assert.True(t, ad.Indeterminate)
	require.Len(t, ad.Subcategories, 1)
	assert.Equal(t, []filterEdge{{EdgeType: "DCFor", Checked: false}}, ad.Subcategories[0].Edges)
}

func TestSections(t *testing.T) {
	srv := newTestServer(t, &stubTransport{})

	var secs []sectionResponse
	resp := get(t, srv.URL+"/api/sections/User?id=S-1", &secs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, secs)
	assert.Equal(t, "Sessions", secs[0].Label)
	assert.True(t, strings.HasPrefix(secs[0].Path, "/api/v2/users/S-1/"))

	resp = get(t, srv.URL+"/api/sections/Nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := prom.New(reg)
	observability.SetQueryHooks(m)
	t.Cleanup(observability.Reset)

	s := New(Options{Transport: &stubTransport{}, Gatherer: reg})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get(t, srv.URL+"/api/explore?"+params.State{}.NodeSearch("alice").Encode(), nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf strings.Builder
	_, _ = io.Copy(&buf, resp.Body)
	assert.Contains(t, buf.String(), "houndview_")
}

func TestSessionsShareExecutor(t *testing.T) {
	s := New(Options{Transport: &stubTransport{}})
	req := httptest.NewRequest(http.MethodGet, "/api/explore", nil)
	req.Header.Set(SessionHeader, "tab-1")
	other := httptest.NewRequest(http.MethodGet, "/api/explore", nil)

	assert.Same(t, s.executor(req), s.executor(req))
	assert.NotSame(t, s.executor(other), s.executor(other))
}

func TestSessionEviction(t *testing.T) {
	s := New(Options{Transport: &stubTransport{}})
	for i := range maxSessions + 5 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, "s"+strconv.Itoa(i))
		s.executor(req)
	}
	assert.Len(t, s.sessions, maxSessions)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(explore.ErrSuperseded))
	assert.Equal(t, 0, statusFor(context.Canceled))
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.New(errors.ErrCodeInvalidItemID, "x")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
