package graph_test

import (
	"fmt"

	"github.com/matzehuels/houndview/pkg/graph"
)

func ExampleDecodePayload() {
	flat := []byte(`{
	  "10": {"label": {"text": "DOMAIN ADMINS@CORP.LOCAL"},
	         "data": {"nodetype": "Group", "objectid": "S-1-5-21-1-512", "system_tags": "admin_tier_0"}},
	  "20": {"label": {"text": "ALICE@CORP.LOCAL"},
	         "data": {"nodetype": "User", "objectid": "S-1-5-21-1-1104", "lastseen": "2024-05-01T00:00:00Z"}},
	  "20_MemberOf_10": {"id1": "20", "id2": "10", "label": {"text": "MemberOf"}, "data": {}}
	}`)

	g, err := graph.DecodePayload(flat)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(g.Nodes["10"].Kind, g.Nodes["10"].IsTierZero)
	fmt.Println(g.Nodes["20"].LastSeen)
	e := g.Edges[0]
	fmt.Println(e.Source, e.Kind, e.Target, e.ExploreGraphID)
	// Output:
	// Group true
	// 2024-05-01T00:00:00Z
	// 20 MemberOf 10 20_MemberOf_10
}

func ExampleToFlat() {
	resp := graph.GraphResponse{Data: graph.GraphData{
		Nodes: map[string]graph.NodeRecord{
			"1": {Label: "WS01.CORP.LOCAL", Kind: "Computer", ObjectID: "S-1-5-21-1-1001", IsOwnedObject: true},
		},
		Edges: []graph.EdgeRecord{{Source: "2", Target: "1", Kind: "AdminTo"}},
	}}

	flat := graph.ToFlat(resp)
	fmt.Println(flat["1"].Node.Data["system_tags"])
	fmt.Println(flat["2_AdminTo_1"].IsLink())
	// Output:
	// owned
	// true
}
