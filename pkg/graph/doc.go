// Package graph defines the canonical explore graph and the two wire shapes
// the backend uses to deliver it.
//
// # Architecture
//
// The package sits at the serialization boundary between backend payloads
// and everything that consumes graph data:
//
//   - [GraphData]: canonical, renderer-facing model (this package)
//   - [FlatGraph]: wire shape A, one flat map of node and link items
//   - [GraphResponse]: wire shape B, separate node map and edge list
//
// Use [ToCanonical] and [ToFlat] to move between the shapes, or
// [DecodePayload] when the shape of a payload is not known up front.
//
// # Flat items
//
// A flat entry carries no type tag. It is a link when it has an "id1" key
// and a node otherwise. [FlatItem.UnmarshalJSON] is the only place that
// rule is applied; everything downstream switches on [FlatItem.IsLink].
//
// # Last seen
//
// Endpoints disagree on where the last-seen timestamp lives. Every
// transform resolves it with [ResolveLastSeen]: the top-level lastSeen
// field, then data.lastSeen, then data.lastseen, else "".
//
// # Integrity
//
// Transforms never check that edge endpoints exist in the node map. Edges
// with dangling endpoints survive unchanged; [Stats] counts them for logs.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
