package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/houndview/pkg/config"
	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graph"
)

const (
	searchPayload = `{"data":{"1":{"label":{"text":"ALICE@CORP"},"data":{"nodetype":"User","objectid":"S-1"}}}}`
	pathPayload   = `{"data":{"nodes":{"1":{"label":"ALICE@CORP","kind":"User","objectId":"S-1"},"2":{"label":"ADMINS@CORP","kind":"Group","objectId":"S-2","isTierZero":true}},"edges":[{"source":"1","target":"2","label":"MemberOf","kind":"MemberOf"}]}}`
	tablePayload  = `{"count":3,"skip":1,"limit":2,"data":[{"name":"SRV01","objectid":"S-9"},{"name":"SRV02","objectid":"S-10"}]}`
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return "status " + strconv.Itoa(e.code) }
func (e *statusErr) HTTPStatus() int { return e.code }

// fakeTransport answers every mode with a fixed payload and records the
// arguments it saw.
type fakeTransport struct {
	err   error
	calls int
	term  string
	kinds string
	page  explore.Page
}

func (f *fakeTransport) answer(payload string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(payload), nil
}

func (f *fakeTransport) Search(_ context.Context, term string) ([]byte, error) {
	f.term = term
	return f.answer(searchPayload)
}

func (f *fakeTransport) ShortestPath(_ context.Context, _, _, kinds string) ([]byte, error) {
	f.kinds = kinds
	return f.answer(pathPayload)
}

func (f *fakeTransport) Cypher(context.Context, string, bool) ([]byte, error) {
	return f.answer(pathPayload)
}

func (f *fakeTransport) EdgeComposition(context.Context, int64, int64, string) ([]byte, error) {
	return f.answer(pathPayload)
}

func (f *fakeTransport) ACLInheritance(context.Context, int64, int64, string) ([]byte, error) {
	return f.answer(pathPayload)
}

func (f *fakeTransport) EntitySection(_ context.Context, _ explore.Endpoint, _ string, page explore.Page) ([]byte, error) {
	f.page = page
	if page.Graph {
		return f.answer(pathPayload)
	}
	return f.answer(tablePayload)
}

// isolate points every per-user directory at a temporary one.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, config.EnvPrefix) {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
}

func newTestCLI(t *testing.T, tr *fakeTransport) *CLI {
	t.Helper()
	isolate(t)
	c := New(io.Discard, LogInfo)
	c.newTransport = func(config.Config) (explore.Transport, error) { return tr, nil }
	return c
}

// run executes args on a fresh command tree and returns stdout.
func run(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, c *CLI, args ...string) string {
	t.Helper()
	out, err := run(t, c, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestSearchNodeJSON(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	out := mustRun(t, c, "search", "node", "alice@corp", "-f", "json", "--no-cache")
	if tr.term != "alice@corp" {
		t.Errorf("searched %q, want alice@corp", tr.term)
	}
	g, err := graph.ReadGraph(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a graph: %v\n%s", err, out)
	}
	if n, ok := g.Nodes["1"]; !ok || n.Kind != "User" {
		t.Errorf("unexpected nodes %+v", g.Nodes)
	}
}

func TestSearchTableOutput(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})
	out := mustRun(t, c, "search", "path", "S-1", "S-2", "--no-cache")
	for _, want := range []string{"ALICE@CORP", "ADMINS@CORP", "MemberOf", "tier0"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestSearchUsesFileCache(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	mustRun(t, c, "search", "node", "alice", "-f", "json")
	mustRun(t, c, "search", "node", "alice", "-f", "json")
	if tr.calls != 1 {
		t.Errorf("transport called %d times, want 1", tr.calls)
	}
}

func TestSearchFailureCarriesMessage(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{err: &statusErr{code: 404}})

	_, err := run(t, c, "search", "path", "S-1", "S-2", "--no-cache")
	if err == nil {
		t.Fatal("expected an error")
	}
	if msg := errors.UserMessage(err); msg != "Path not found." {
		t.Errorf("message = %q, want %q", msg, "Path not found.")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeInternal {
		t.Errorf("code = %q, want %q", code, errors.ErrCodeInternal)
	}
}

func TestSearchEmptyComposition(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)
	c.newTransport = func(config.Config) (explore.Transport, error) { return emptyTransport{tr}, nil }

	_, err := run(t, c, "search", "composition", "1_ADCSESC1_2", "--no-cache")
	if !errors.Is(err, errors.ErrCodeEmptyResult) {
		t.Fatalf("err = %v, want EMPTY_RESULT", err)
	}
}

type emptyTransport struct{ *fakeTransport }

func (emptyTransport) EdgeComposition(context.Context, int64, int64, string) ([]byte, error) {
	return []byte(`{"data":{"nodes":{},"edges":[]}}`), nil
}

func TestSearchRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"blank term", []string{"search", "node", " "}, errors.ErrCodeInvalidInput},
		{"unknown edge type", []string{"search", "path", "a", "b", "--include", "NotAnEdge"}, errors.ErrCodeInvalidEdgeKind},
		{"node id as edge", []string{"search", "composition", "42"}, errors.ErrCodeInvalidItemID},
		{"edge as relationship target", []string{"search", "relationship", "1_MemberOf_2", "User", "Sessions"}, errors.ErrCodeInvalidItemID},
		{"unknown kind", []string{"search", "relationship", "42", "Printer", "Sessions"}, errors.ErrCodeInvalidInput},
		{"unknown section", []string{"search", "relationship", "42", "Computer", "Nope"}, errors.ErrCodeInvalidInput},
		{"disabled location", []string{"search", "location", "searchType=node"}, errors.ErrCodeInvalidInput},
		{"table outside relationship", []string{"search", "node", "alice", "--table"}, errors.ErrCodeInvalidInput},
		{"binary to terminal", []string{"search", "node", "alice", "-f", "png"}, errors.ErrCodeInvalidInput},
		{"unknown format", []string{"search", "node", "alice", "-f", "xml"}, errors.ErrCodeInvalidFormat},
		{"empty cypher", []string{"search", "cypher", "  "}, errors.ErrCodeInvalidCypher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			c := newTestCLI(t, tr)
			_, err := run(t, c, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
			if tr.calls != 0 {
				t.Errorf("transport called %d times", tr.calls)
			}
		})
	}
}

func TestSearchSectionTable(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	out := mustRun(t, c, "search", "relationship", "42", "Computer", "RDP Users",
		"--table", "--skip", "1", "--limit", "2", "--no-cache")
	if tr.page != (explore.Page{Skip: 1, Limit: 2}) {
		t.Errorf("page = %+v", tr.page)
	}
	for _, want := range []string{"SRV01", "SRV02", "rows 2-3 of 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("section table missing %q:\n%s", want, out)
		}
	}
}

func TestSearchRelationshipWithoutSections(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	out := mustRun(t, c, "search", "relationship", "42", "Computer", "-f", "json", "--no-cache")
	if !tr.page.Graph {
		t.Errorf("page = %+v, want the graph form", tr.page)
	}
	g, err := graph.ReadGraph(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a graph: %v\n%s", err, out)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(g.Nodes))
	}
}

func TestURLCommand(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	out := mustRun(t, c, "--api-url", "https://bh.example.com/", "url", "node", "alice")
	want := "https://bh.example.com/ui/explore?primarySearch=alice&searchType=node\n"
	if out != want {
		t.Errorf("url = %q, want %q", out, want)
	}
	if tr.calls != 0 {
		t.Error("url must not run the search")
	}

	out = mustRun(t, c, "url", "location", "https://bh.example.com/ui/explore?searchType=pathfinding&primarySearch=a&secondarySearch=b")
	if out != "?primarySearch=a&searchType=pathfinding&secondarySearch=b\n" {
		t.Errorf("url location = %q", out)
	}
}

func TestHistoryAndBack(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	mustRun(t, c, "search", "node", "alice", "-f", "json", "--no-cache")
	mustRun(t, c, "url", "--save", "path", "S-1", "S-2")

	out := mustRun(t, c, "history")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("history has %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "node alice") || !strings.Contains(lines[1], "path S-1") {
		t.Errorf("unexpected history:\n%s", out)
	}

	out = mustRun(t, c, "back", "--print")
	if out != "?primarySearch=alice&searchType=node\n" {
		t.Errorf("back = %q", out)
	}

	calls := tr.calls
	mustRun(t, c, "back")
	if tr.calls != calls {
		t.Error("back at the oldest location should not run a search")
	}

	mustRun(t, c, "history", "--clear")
	if out := mustRun(t, c, "history"); out != "" {
		t.Errorf("history after clear = %q", out)
	}
}

func TestSessionsAreSeparate(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})

	mustRun(t, c, "url", "--save", "node", "alice")
	mustRun(t, c, "--session", "other", "url", "--save", "node", "bob")

	if out := mustRun(t, c, "history"); !strings.Contains(out, "alice") || strings.Contains(out, "bob") {
		t.Errorf("default history = %q", out)
	}
	if _, err := run(t, c, "--session", "../x", "history"); err == nil {
		t.Error("expected an error for a path-like session name")
	}
}

func TestFilterFlagsScopePathfinding(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	mustRun(t, c, "url", "--save", "path", "S-1", "S-2")
	mustRun(t, c, "filter", "--include", "MemberOf,AdminTo", "--run", "-f", "json", "--no-cache")
	if !strings.HasPrefix(tr.kinds, "in:") || !strings.Contains(tr.kinds, "MemberOf") || !strings.Contains(tr.kinds, "AdminTo") {
		t.Fatalf("relationship_kinds = %q", tr.kinds)
	}
	if strings.Count(tr.kinds, ",") != 1 {
		t.Errorf("relationship_kinds = %q, want exactly two types", tr.kinds)
	}

	// A new path search keeps the committed filter.
	tr.kinds = ""
	mustRun(t, c, "search", "path", "S-3", "S-4", "-f", "json", "--no-cache")
	if strings.Count(tr.kinds, ",") != 1 {
		t.Errorf("filter not kept: %q", tr.kinds)
	}

	out := mustRun(t, c, "filter", "--list")
	if !strings.Contains(out, "[x] MemberOf") || !strings.Contains(out, "[ ] HasSession") {
		t.Errorf("filter list:\n%s", out)
	}

	mustRun(t, c, "filter", "--reset")
	tr.kinds = ""
	mustRun(t, c, "search", "path", "S-3", "S-4", "-f", "json", "--no-cache")
	if strings.Count(tr.kinds, ",") < 10 {
		t.Errorf("reset filter should select every type, got %q", tr.kinds)
	}
}

func TestItemDecode(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})

	out := mustRun(t, c, "item", "decode", "--json", "12_MemberOf_34", "rel_7", "S-1")
	dec := json.NewDecoder(strings.NewReader(out))
	var got []itemJSON
	for dec.More() {
		var it itemJSON
		if err := dec.Decode(&it); err != nil {
			t.Fatal(err)
		}
		got = append(got, it)
	}
	if len(got) != 3 {
		t.Fatalf("decoded %d items", len(got))
	}
	if got[0].Form != "edge-by-endpoints" || got[0].EdgeType != "MemberOf" || got[0].SourceID != "12" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Form != "edge-by-key" || got[1].EdgeKey != "7" {
		t.Errorf("second = %+v", got[1])
	}
	if got[2].Type != "node" || got[2].NodeID != "S-1" {
		t.Errorf("third = %+v", got[2])
	}

	text := mustRun(t, c, "item", "decode", "12_MemberOf_34")
	if !strings.Contains(text, "edge type  MemberOf") {
		t.Errorf("text decode:\n%s", text)
	}
}

func TestItemFetchNeedsDatabase(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})
	_, err := run(t, c, "item", "fetch", "42")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestExportDOT(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})

	in := filepath.Join(t.TempDir(), "g.json")
	if err := os.WriteFile(in, []byte(pathPayload), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, c, "export", in, "-f", "dot")
	if !strings.HasPrefix(out, "digraph") || !strings.Contains(out, "MemberOf") {
		t.Errorf("dot output:\n%s", out)
	}

	dst := filepath.Join(t.TempDir(), "g.json")
	mustRun(t, c, "export", in, "-f", "json", "-o", dst)
	g, err := graph.ReadGraphFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("round trip lost data: %+v", g)
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := "[api]\nurl = \"https://file.example.com\"\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, c, "--config", path, "url", "node", "x")
	if !strings.HasPrefix(out, "https://file.example.com/ui/explore?") {
		t.Errorf("file url = %q", out)
	}
	out = mustRun(t, c, "--config", path, "--api-url", "https://flag.example.com", "url", "node", "x")
	if !strings.HasPrefix(out, "https://flag.example.com/ui/explore?") {
		t.Errorf("flag should win: %q", out)
	}
	if c.cfg().Cache.Backend != "none" {
		t.Errorf("cache backend = %q", c.cfg().Cache.Backend)
	}

	_, err := run(t, c, "--config", filepath.Join(t.TempDir(), "missing.toml"), "url", "node", "x")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing explicit config: %v", err)
	}
}

func TestCachePathFollowsConfig(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})
	out := mustRun(t, c, "cache", "path")
	if want := config.DefaultCacheDir() + "\n"; out != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestStatusWithoutAPI(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})
	if _, err := run(t, c, "status"); err != nil {
		t.Errorf("status without api should only warn: %v", err)
	}
}

func TestCompletionIgnoresBrokenConfig(t *testing.T) {
	c := newTestCLI(t, &fakeTransport{})
	bad := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(bad, []byte("api = ["), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, c, "completion", "bash", "--config", bad)
	if !strings.Contains(out, "houndview") {
		t.Errorf("bash completion does not mention houndview:\n%.200s", out)
	}
	if _, err := run(t, c, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
