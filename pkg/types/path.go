package types

// PathEdge is one hop of a traversal path.
type PathEdge struct {
	Source   string  `json:"src"`
	Target   string  `json:"dst"`
	Relation string  `json:"relation"`
	Desc     string  `json:"desc,omitempty"`
	Weight   float64 `json:"weight"`
}

// TraversalPath is a cycle-free walk through the knowledge graph.
//
// Invariants: len(Edges) == len(Nodes)-1; Edges[i] connects Nodes[i] to
// Nodes[i+1]; no node id repeats. Context is opaque rendered text and may
// contain newlines inside edge descriptions; consumers must not parse it.
type TraversalPath struct {
	Nodes       []string   `json:"nodes"`
	Edges       []PathEdge `json:"edges"`
	TotalWeight float64    `json:"weight"`
	Context     string     `json:"context"`
}

// Valid reports whether the path satisfies its structural invariants.
func (p TraversalPath) Valid() bool {
	if len(p.Edges) != len(p.Nodes)-1 {
		return false
	}
	seen := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if seen[n] {
			return false
		}
		seen[n] = true
	}
	for i, e := range p.Edges {
		if e.Source != p.Nodes[i] || e.Target != p.Nodes[i+1] {
			return false
		}
	}
	return true
}
