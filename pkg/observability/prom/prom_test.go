package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/houndview/pkg/observability"
)

func TestMetricsCountQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	ctx := context.Background()

	m.OnQueryComplete(ctx, "cypher", 3, 2, time.Millisecond, nil)
	m.OnQueryComplete(ctx, "cypher", 0, 0, time.Millisecond, errors.New("400"))
	m.OnQueryCancelled(ctx, "pathfinding")
	m.OnCacheHit(ctx, "cypher")
	m.OnCacheMiss(ctx, "cypher")
	m.OnCacheSet(ctx, "cypher", 128)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("cypher", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("cypher", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryCancelled.WithLabelValues("pathfinding")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("cypher", "hit")))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.cacheBytes.WithLabelValues("cypher")))
}

func TestMetricsCountRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	ctx := context.Background()

	m.OnResponse(ctx, "GET", "bh", "/api/v2/graph-search", 200, time.Millisecond)
	m.OnResponse(ctx, "GET", "bh", "/api/v2/graph-search", 200, time.Millisecond)
	m.OnError(ctx, "GET", "bh", "/api/v2/graph-search", errors.New("refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v2/graph-search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestErrors.WithLabelValues("GET", "/api/v2/graph-search")))

	n, err := testutil.GatherAndCount(reg, "houndview_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterInstallsHooks(t *testing.T) {
	defer observability.Reset()
	m := New(prometheus.NewRegistry())
	m.Register()

	assert.Same(t, m, observability.Query())
	assert.Same(t, m, observability.Cache())
	assert.Same(t, m, observability.HTTP())
}
