// Package pkg provides the core libraries behind houndview, a terminal and
// HTTP front end for the BloodHound explore page.
//
// # Overview
//
// The explore page is driven entirely by its location: a handful of query
// parameters select a search mode and its inputs. houndview keeps that
// model. A location is parsed into a [params.State], routed to a query
// descriptor, executed against the BloodHound API and normalized into one
// canonical graph shape.
//
// # Architecture
//
//	location query string
//	         ↓
//	    [params] (typed search parameters, navigation helpers)
//	         ↓
//	    [explore] (mode routing, relationship sections, executor)
//	         ↓
//	    [bloodhound] (API transport, signed requests)
//	         ↓
//	    [graph] (wire shapes → canonical GraphData)
//	         ↓
//	    table / JSON / DOT / SVG / PNG / PDF
//
// # Quick Start
//
//	client, _ := bloodhound.New(bloodhound.Options{BaseURL: "https://bh.example.com", Token: jwt})
//	exec := explore.NewExecutor(client, nil, nil, nil)
//
//	st := params.State{}.PathSearch("S-1-5-21-1", "S-1-5-21-512")
//	res, err := exec.Execute(ctx, explore.Route(st))
//	if err != nil {
//	    var qe *explore.QueryError
//	    if errors.As(err, &qe) {
//	        fmt.Println(qe.Message.Text)
//	    }
//	    return err
//	}
//	fmt.Println(nodelink.ToDOT(res.Graph, nodelink.Options{}))
//
// # Main Packages
//
// ## Search Model
//
//   - [params]: the location parameters and their encoding
//   - [itemid]: node and edge identifiers
//   - [edgefilter]: the pathfinding edge-type selection
//   - [explore]: routing, relationship sections and query execution
//   - [graph]: canonical graph types and payload transforms
//
// ## Infrastructure
//
//   - [bloodhound]: API client
//   - [graphdb]: direct item lookups against Neo4j
//   - [cache]: file, Redis and null result caches
//   - [config]: layered configuration
//   - [session]: CLI navigation history
//   - [httputil]: retry and rate limiting
//   - [observability]: hooks and Prometheus metrics
//   - [render]: Graphviz node-link rendering
//   - [errors]: coded errors and input validation
//
// [params]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/params
// [itemid]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/itemid
// [edgefilter]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/edgefilter
// [explore]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/explore
// [graph]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/graph
// [bloodhound]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/bloodhound
// [graphdb]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/graphdb
// [cache]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/config
// [session]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/session
// [httputil]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/houndview/pkg/errors
package pkg
