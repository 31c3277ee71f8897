// Package kg holds the divination knowledge graph and its multi-hop traversal
// engine. The graph is built once at startup and is read-only at query time,
// so traversal is safe to run concurrently.
package kg

import (
	"sort"
	"strings"
)

// findNodesLimit caps how many node ids a fuzzy lookup may resolve to.
const findNodesLimit = 5

// Edge is one labeled, weighted edge of the multigraph. Multiple edges may
// connect the same pair of nodes as long as their relations differ.
type Edge struct {
	Source   string  `json:"src"`
	Target   string  `json:"dst"`
	Relation string  `json:"relation"`
	Desc     string  `json:"desc,omitempty"`
	Weight   float64 `json:"weight"`
}

// Graph is the capability the traversal engine and the orchestrator depend
// on. Implementations must be safe for concurrent readers.
type Graph interface {
	// FindNodes resolves a query to node ids by case-insensitive substring
	// match, at most 5 results.
	FindNodes(query string) []string
	// OutEdges returns the outgoing edges of a node in insertion order.
	OutEdges(node string) []Edge
}

// MemoryGraph is the in-memory Graph implementation. Mutation methods are for
// construction only; once handed to the orchestrator the graph must not
// change.
type MemoryGraph struct {
	order    []string
	nodes    map[string]bool
	adjacent map[string][]Edge
	edgeCnt  int
}

// NewMemoryGraph creates an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes:    make(map[string]bool),
		adjacent: make(map[string][]Edge),
	}
}

// AddNode registers a node id. Adding an existing node is a no-op.
func (g *MemoryGraph) AddNode(id string) {
	if id == "" || g.nodes[id] {
		return
	}
	g.nodes[id] = true
	g.order = append(g.order, id)
}

// AddEdge registers a directed edge, creating endpoints as needed. Negative
// weights are clamped to zero.
func (g *MemoryGraph) AddEdge(e Edge) {
	if e.Source == "" || e.Target == "" {
		return
	}
	if e.Weight < 0 {
		e.Weight = 0
	}
	g.AddNode(e.Source)
	g.AddNode(e.Target)
	g.adjacent[e.Source] = append(g.adjacent[e.Source], e)
	g.edgeCnt++
}

// NodeCount returns the number of nodes.
func (g *MemoryGraph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *MemoryGraph) EdgeCount() int { return g.edgeCnt }

// FindNodes implements Graph. Matching is case-insensitive substring on the
// node id, in node insertion order, capped at 5.
func (g *MemoryGraph) FindNodes(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []string
	for _, id := range g.order {
		if strings.Contains(strings.ToLower(id), q) {
			out = append(out, id)
			if len(out) >= findNodesLimit {
				break
			}
		}
	}
	return out
}

// OutEdges implements Graph.
func (g *MemoryGraph) OutEdges(node string) []Edge {
	return g.adjacent[node]
}

// Search performs a substring relevance search over node ids and their edge
// descriptions. It backs the orchestrator's graph-search step when no vector
// provider is configured. Results are maps so callers can carry provider
// results of any shape.
func (g *MemoryGraph) Search(query string, topK int) []map[string]interface{} {
	if topK <= 0 {
		topK = 10
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	type hit struct {
		node  string
		score int
		desc  string
	}
	var hits []hit
	for _, id := range g.order {
		idLower := strings.ToLower(id)
		score := 0
		desc := ""
		for _, t := range terms {
			if strings.Contains(idLower, t) {
				score += 2
			}
		}
		for _, e := range g.adjacent[id] {
			dl := strings.ToLower(e.Desc)
			for _, t := range terms {
				if dl != "" && strings.Contains(dl, t) {
					score++
					if desc == "" {
						desc = e.Desc
					}
				}
			}
		}
		if score > 0 {
			hits = append(hits, hit{node: id, score: score, desc: desc})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		m := map[string]interface{}{"node": h.node, "score": h.score}
		if h.desc != "" {
			m["desc"] = h.desc
		}
		out = append(out, m)
	}
	return out
}
