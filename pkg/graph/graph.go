package graph

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts canonical graph data to indented JSON bytes.
// Edges are sorted for deterministic output; node keys are sorted by the
// encoder.
func MarshalGraph(g GraphData) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes canonical graph data to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g GraphData, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes canonical graph data as JSON to an io.Writer.
func WriteGraph(g GraphData, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a payload in either wire shape, or a canonical graph
// written by [WriteGraphFile], from a file.
func ReadGraphFile(path string) (GraphData, error) {
	f, err := os.Open(path)
	if err != nil {
		return GraphData{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a payload in any supported shape from an io.Reader.
func ReadGraph(r io.Reader) (GraphData, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g GraphData, w io.Writer) error {
	out := g
	out.Edges = slices.Clone(g.Edges)
	sortEdges(out.Edges)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (GraphData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return GraphData{}, fmt.Errorf("read: %w", err)
	}
	if isCanonical(raw) {
		var g GraphData
		if err := json.Unmarshal(raw, &g); err != nil {
			return GraphData{}, fmt.Errorf("decode: %w", err)
		}
		return Normalize(g), nil
	}
	return DecodePayload(raw)
}

// isCanonical reports whether raw is a bare {"nodes":..., "edges":...} object.
func isCanonical(raw []byte) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return false
	}
	_, nodes := top["nodes"]
	_, edges := top["edges"]
	return nodes && edges
}

func sortEdges(edges []EdgeRecord) {
	slices.SortStableFunc(edges, func(a, b EdgeRecord) int {
		return cmp.Or(
			cmp.Compare(a.ExploreGraphID, b.ExploreGraphID),
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Target, b.Target),
		)
	})
}
