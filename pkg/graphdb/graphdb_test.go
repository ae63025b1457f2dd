package graphdb

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/houndview/pkg/errors"
)

type fakeRunner struct {
	queries []string
	records []*neo4j.Record
	err     error
}

func (f *fakeRunner) Run(_ context.Context, query string, _ map[string]any) (*neo4j.EagerResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return &neo4j.EagerResult{Records: f.records}, nil
}

func record(values ...any) *neo4j.Record {
	keys := make([]string, len(values))
	for i := range keys {
		keys[i] = string(rune('a' + i))
	}
	return &neo4j.Record{Keys: keys, Values: values}
}

var (
	alice = neo4j.Node{
		Id:     12,
		Labels: []string{"Base", "User"},
		Props: map[string]any{
			"name":        "ALICE@CORP.LOCAL",
			"objectid":    "S-1-5-21-1-1105",
			"system_tags": "owned",
			"lastseen":    "2026-01-02T03:04:05Z",
		},
	}
	admins = neo4j.Node{
		Id:     40,
		Labels: []string{"Base", "Group"},
		Props: map[string]any{
			"name":        "DOMAIN ADMINS@CORP.LOCAL",
			"objectid":    "S-1-5-21-1-512",
			"system_tags": []any{"admin_tier_0"},
		},
	}
	memberOf = neo4j.Relationship{
		Id:      7,
		StartId: 12,
		EndId:   40,
		Type:    "MemberOf",
		Props:   map[string]any{"lastseen": "2026-01-02T03:04:05Z"},
	}
)

func TestFetchEdgeByEndpoints(t *testing.T) {
	r := &fakeRunner{records: []*neo4j.Record{
		record(neo4j.Path{Nodes: []neo4j.Node{alice, admins}, Relationships: []neo4j.Relationship{memberOf}}),
	}}
	g, err := New(r).FetchItem(context.Background(), "12_MemberOf_40")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MATCH p = (s)-[r:MemberOf]->(t) WHERE ID(s) = 12 AND ID(t) = 40 RETURN p LIMIT 1",
	}, r.queries)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)

	e := g.Edges[0]
	assert.Equal(t, "12", e.Source)
	assert.Equal(t, "40", e.Target)
	assert.Equal(t, "MemberOf", e.Kind)
	assert.Equal(t, "12_MemberOf_40", e.ExploreGraphID)

	u := g.Nodes["12"]
	assert.Equal(t, "ALICE@CORP.LOCAL", u.Label)
	assert.Equal(t, "User", u.Kind)
	assert.True(t, u.IsOwnedObject)
	assert.False(t, u.IsTierZero)
	assert.True(t, g.Nodes["40"].IsTierZero)
}

func TestFetchNode(t *testing.T) {
	r := &fakeRunner{records: []*neo4j.Record{record(alice)}}
	g, err := New(r).FetchItem(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) WHERE ID(n) = 12 RETURN n LIMIT 1", r.queries[0])
	assert.Equal(t, "S-1-5-21-1-1105", g.Nodes["12"].ObjectID)
	assert.Empty(t, g.Edges)
}

func TestFetchRejectsNonNumericIDs(t *testing.T) {
	for _, id := range []string{"S-1-5-21-1", "12 OR 1=1", "99999999999999999999_MemberOf_1", "1_Member Of_2"} {
		r := &fakeRunner{}
		_, err := New(r).FetchItem(context.Background(), id)
		require.Error(t, err, id)
		assert.Empty(t, r.queries, id)
	}
}

func TestFetchNotFound(t *testing.T) {
	_, err := New(&fakeRunner{}).FetchItem(context.Background(), "rel_7")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestQueryWrapsRunnerErrors(t *testing.T) {
	_, err := New(&fakeRunner{err: assert.AnError}).Query(context.Background(), "MATCH (n) RETURN n")
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestConvertBareRelationship(t *testing.T) {
	g := Convert([]*neo4j.Record{record([]any{memberOf, memberOf})})
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "12", g.Nodes["12"].Label)
	assert.Equal(t, "40", g.Nodes["40"].Label)
}

func TestOpenRequiresURI(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}
