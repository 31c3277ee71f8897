package kg

import (
	"sort"
	"strings"

	"github.com/mirae-labs/go-mirae/pkg/types"
)

// TraverseOptions bounds a multi-hop traversal.
type TraverseOptions struct {
	// MaxDepth is the maximum number of edges a recorded path may have.
	MaxDepth int
	// MaxPaths caps how many scored paths are returned.
	MaxPaths int
	// MinWeight drops paths whose total weight falls below it.
	MinWeight float64
	// RelationFilter, when non-empty, restricts expansion to the listed
	// relations.
	RelationFilter []string
}

// DefaultTraverseOptions mirrors the orchestrator's deep-traverse step.
func DefaultTraverseOptions() TraverseOptions {
	return TraverseOptions{MaxDepth: 3, MaxPaths: 5}
}

// Traverser runs bounded BFS over a read-only Graph.
type Traverser struct {
	graph Graph
}

// NewTraverser creates a traversal engine over g. A nil graph yields empty
// results from every call.
func NewTraverser(g Graph) *Traverser {
	return &Traverser{graph: g}
}

type partialPath struct {
	nodes []string
	edges []Edge
}

func (p partialPath) contains(node string) bool {
	for _, n := range p.nodes {
		if n == node {
			return true
		}
	}
	return false
}

// Traverse resolves each start entity through FindNodes and runs BFS from
// every resolved node. Every prefix of length >= 1 edge is recorded, not only
// terminal paths. Cycle detection is per path only: a node may appear in many
// paths, just never twice in one (keeps results independent of start-node
// iteration order).
func (t *Traverser) Traverse(startEntities []string, opts TraverseOptions) []types.TraversalPath {
	if t.graph == nil || opts.MaxDepth <= 0 || len(startEntities) == 0 {
		return nil
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = 5
	}

	allowed := relationSet(opts.RelationFilter)
	var recorded []partialPath
	for _, entity := range startEntities {
		for _, start := range t.graph.FindNodes(entity) {
			recorded = append(recorded, t.bfs(start, opts.MaxDepth, allowed, nil)...)
		}
	}
	return finishPaths(recorded, opts.MinWeight, opts.MaxPaths)
}

// FindConnections searches for paths from nodes matching a to nodes matching
// b, up to maxDepth edges. A path is emitted whenever the frontier lands on a
// b-node.
func (t *Traverser) FindConnections(a, b string, maxDepth int) []types.TraversalPath {
	if t.graph == nil || maxDepth <= 0 {
		return nil
	}
	targets := make(map[string]bool)
	for _, id := range t.graph.FindNodes(b) {
		targets[id] = true
	}
	if len(targets) == 0 {
		return nil
	}

	var recorded []partialPath
	for _, start := range t.graph.FindNodes(a) {
		recorded = append(recorded, t.bfs(start, maxDepth, nil, targets)...)
	}
	return finishPaths(recorded, 0, len(recorded))
}

// bfs expands from start breadth-first. When targets is nil every extension
// is recorded; otherwise only extensions landing on a target node are.
func (t *Traverser) bfs(start string, maxDepth int, allowed map[string]bool, targets map[string]bool) []partialPath {
	queue := []partialPath{{nodes: []string{start}}}
	var recorded []partialPath

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if len(current.edges) >= maxDepth {
			continue
		}
		last := current.nodes[len(current.nodes)-1]
		for _, e := range t.graph.OutEdges(last) {
			if allowed != nil && !allowed[e.Relation] {
				continue
			}
			if current.contains(e.Target) {
				continue
			}
			next := partialPath{
				nodes: append(append([]string(nil), current.nodes...), e.Target),
				edges: append(append([]Edge(nil), current.edges...), e),
			}
			if targets == nil || targets[e.Target] {
				recorded = append(recorded, next)
			}
			queue = append(queue, next)
		}
	}
	return recorded
}

// finishPaths scores, filters, sorts and truncates recorded paths. The sort
// is stable so ties keep BFS insertion order.
func finishPaths(recorded []partialPath, minWeight float64, maxPaths int) []types.TraversalPath {
	paths := make([]types.TraversalPath, 0, len(recorded))
	for _, p := range recorded {
		tp := scorePath(p)
		if tp.TotalWeight < minWeight {
			continue
		}
		paths = append(paths, tp)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].TotalWeight > paths[j].TotalWeight
	})
	if len(paths) > maxPaths {
		paths = paths[:maxPaths]
	}
	return paths
}

func scorePath(p partialPath) types.TraversalPath {
	var sum float64
	edges := make([]types.PathEdge, len(p.edges))
	lines := make([]string, len(p.edges))
	for i, e := range p.edges {
		sum += e.Weight
		edges[i] = types.PathEdge{
			Source:   e.Source,
			Target:   e.Target,
			Relation: e.Relation,
			Desc:     e.Desc,
			Weight:   e.Weight,
		}
		line := e.Source + " --[" + e.Relation + "]--> " + e.Target
		if e.Desc != "" {
			line += ": " + e.Desc
		}
		lines[i] = line
	}
	avg := 0.0
	if len(p.edges) > 0 {
		avg = sum / float64(len(p.edges))
	}
	bonus := float64(len(p.nodes)) * 0.1
	if bonus > 0.3 {
		bonus = 0.3
	}
	return types.TraversalPath{
		Nodes:       p.nodes,
		Edges:       edges,
		TotalWeight: avg + bonus,
		Context:     strings.Join(lines, "\n"),
	}
}

func relationSet(relations []string) map[string]bool {
	if len(relations) == 0 {
		return nil
	}
	set := make(map[string]bool, len(relations))
	for _, r := range relations {
		set[r] = true
	}
	return set
}
