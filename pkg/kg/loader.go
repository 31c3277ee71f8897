package kg

import (
	"encoding/json"
	"fmt"
	"os"
)

// graphFile is the on-disk JSON shape of a prebuilt knowledge graph.
type graphFile struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// LoadJSON materializes a graph from a JSON file produced by the graph build
// pipeline. The file is trusted local data.
func LoadJSON(path string) (*MemoryGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("failed to parse graph file %s: %w", path, err)
	}

	g := NewMemoryGraph()
	for _, n := range gf.Nodes {
		g.AddNode(n)
	}
	for _, e := range gf.Edges {
		g.AddEdge(e)
	}
	return g, nil
}
