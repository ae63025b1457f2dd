package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/houndview/pkg/graph"
)

func sampleGraph() graph.GraphData {
	g := graph.NewGraphData()
	g.Nodes["12"] = graph.NodeRecord{Label: "ALICE@CORP.LOCAL", Kind: "User", ObjectID: "S-1-5-21-1-1105", IsOwnedObject: true}
	g.Nodes["40"] = graph.NodeRecord{Label: "DOMAIN ADMINS@CORP.LOCAL", Kind: "Group", IsTierZero: true}
	g.Edges = append(g.Edges, graph.EdgeRecord{
		Source: "12", Target: "40", Label: "MemberOf", Kind: "MemberOf", ExploreGraphID: "12_MemberOf_40",
	})
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR",
		`"12" [label="User: ALICE@CORP.LOCAL"`,
		`"40" [label="Group: DOMAIN ADMINS@CORP.LOCAL"`,
		`"12" -> "40" [label="MemberOf"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "objectid:") {
		t.Error("ToDOT() simple output should not include object ids")
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	g := sampleGraph()
	g.Nodes["7"] = graph.NodeRecord{Label: "SRV01", Kind: "Computer"}
	first := ToDOT(g, Options{})
	for range 10 {
		if got := ToDOT(g, Options{}); got != first {
			t.Fatal("ToDOT() output differs between runs")
		}
	}
	if strings.Index(first, `"12" [`) > strings.Index(first, `"7" [`) {
		t.Error("ToDOT() nodes not in key order")
	}
}

func TestToDOT_Direction(t *testing.T) {
	if dot := ToDOT(sampleGraph(), Options{Direction: "TB"}); !strings.Contains(dot, "rankdir=TB") {
		t.Error("ToDOT() ignored Direction")
	}
}

func TestFmtLabel_Detailed(t *testing.T) {
	n := graph.NodeRecord{Label: "alice", Kind: "User", ObjectID: "S-1", LastSeen: "2026-01-02"}
	label := fmtLabel(n, true)

	if !strings.HasPrefix(label, "User: alice\n") {
		t.Errorf("fmtLabel() detailed should start with kind and label: %q", label)
	}
	if !strings.Contains(label, "objectid: S-1") {
		t.Errorf("fmtLabel() detailed missing object id: %q", label)
	}
	if !strings.Contains(label, "last seen: 2026-01-02") {
		t.Errorf("fmtLabel() detailed missing last seen: %q", label)
	}
}

func TestFmtLabel_NoKind(t *testing.T) {
	if got := fmtLabel(graph.NodeRecord{Label: "42"}, true); got != "42" {
		t.Errorf("fmtLabel() = %q, want %q", got, "42")
	}
}

func TestFmtAttrs(t *testing.T) {
	tests := []struct {
		name string
		node graph.NodeRecord
		want []string
		not  []string
	}{
		{"plain", graph.NodeRecord{Kind: "Unknown"}, nil, []string{"fillcolor", "peripheries", "color=red"}},
		{"kind color", graph.NodeRecord{Kind: "User"}, []string{`fillcolor="#17e625"`}, nil},
		{"tier zero", graph.NodeRecord{IsTierZero: true}, []string{"peripheries=2"}, nil},
		{"owned", graph.NodeRecord{IsOwnedObject: true}, []string{"color=red", "penwidth=2"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := strings.Join(fmtAttrs(tt.node, "x"), " ")
			for _, w := range tt.want {
				if !strings.Contains(joined, w) {
					t.Errorf("fmtAttrs() = %q, missing %q", joined, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(joined, n) {
					t.Errorf("fmtAttrs() = %q, should not contain %q", joined, n)
				}
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="5pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if string(normalizeViewBox([]byte("<svg>"))) != "<svg>" {
		t.Error("normalizeViewBox() changed svg without viewBox")
	}
}
