package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/houndview/pkg/config"
)

func TestCacheClear(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestCLI(t, tr)

	mustRun(t, c, "search", "node", "alice", "-f", "json")
	mustRun(t, c, "cache", "clear")

	entries, err := os.ReadDir(config.DefaultCacheDir())
	if err != nil {
		t.Fatalf("cache dir should survive clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after clear", len(entries))
	}

	mustRun(t, c, "search", "node", "alice", "-f", "json")
	if tr.calls != 2 {
		t.Errorf("search after clear should miss the cache, calls = %d", tr.calls)
	}
}

func TestCacheDirUnderXDG(t *testing.T) {
	isolate(t)
	dir := config.DefaultCacheDir()
	if filepath.Base(dir) != appName {
		t.Errorf("cache dir %q should end with %q", dir, appName)
	}
	if filepath.Dir(dir) != os.Getenv("XDG_CACHE_HOME") {
		t.Errorf("cache dir %q should be under XDG_CACHE_HOME", dir)
	}
}
