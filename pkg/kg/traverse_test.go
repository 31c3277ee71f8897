package kg_test

import (
	"testing"

	"github.com/mirae-labs/go-mirae/pkg/kg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainGraph() *kg.MemoryGraph {
	g := kg.NewMemoryGraph()
	g.AddEdge(kg.Edge{Source: "A", Target: "B", Relation: "r", Weight: 1.0})
	g.AddEdge(kg.Edge{Source: "B", Target: "C", Relation: "r", Weight: 1.0})
	g.AddEdge(kg.Edge{Source: "C", Target: "D", Relation: "r", Weight: 1.0})
	g.AddEdge(kg.Edge{Source: "D", Target: "E", Relation: "r", Weight: 1.0})
	return g
}

func TestTraverseDepthBound(t *testing.T) {
	tr := kg.NewTraverser(chainGraph())

	paths := tr.Traverse([]string{"A"}, kg.TraverseOptions{MaxDepth: 3, MaxPaths: 10})

	// Every prefix up to three edges is recorded, nothing deeper.
	require.Len(t, paths, 3)
	var longest []string
	for _, p := range paths {
		assert.GreaterOrEqual(t, len(p.Nodes), 2)
		assert.LessOrEqual(t, len(p.Edges), 3)
		if len(p.Nodes) > len(longest) {
			longest = p.Nodes
		}
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, longest)
}

func TestTraverseScoring(t *testing.T) {
	g := kg.NewMemoryGraph()
	g.AddEdge(kg.Edge{Source: "A", Target: "B", Relation: "r", Weight: 0.8})
	g.AddEdge(kg.Edge{Source: "B", Target: "C", Relation: "r", Weight: 0.4})
	tr := kg.NewTraverser(g)

	paths := tr.Traverse([]string{"A"}, kg.TraverseOptions{MaxDepth: 2, MaxPaths: 10})
	require.Len(t, paths, 2)

	// Score is average edge weight plus 0.1 per node, capped at 0.3.
	assert.InDelta(t, 0.8+0.2, paths[0].TotalWeight, 1e-9)
	assert.InDelta(t, 0.6+0.3, paths[1].TotalWeight, 1e-9)
	// Descending order.
	assert.GreaterOrEqual(t, paths[0].TotalWeight, paths[1].TotalWeight)
}

func TestTraverseCycleSafety(t *testing.T) {
	g := kg.NewMemoryGraph()
	g.AddEdge(kg.Edge{Source: "A", Target: "B", Relation: "r", Weight: 1})
	g.AddEdge(kg.Edge{Source: "B", Target: "A", Relation: "r", Weight: 1})
	tr := kg.NewTraverser(g)

	paths := tr.Traverse([]string{"A"}, kg.TraverseOptions{MaxDepth: 5, MaxPaths: 50})

	for _, p := range paths {
		seen := map[string]bool{}
		for _, n := range p.Nodes {
			assert.False(t, seen[n], "node %s repeated within one path", n)
			seen[n] = true
		}
	}
}

func TestTraverseMaxPathsAndMinWeight(t *testing.T) {
	tr := kg.NewTraverser(chainGraph())

	paths := tr.Traverse([]string{"A"}, kg.TraverseOptions{MaxDepth: 3, MaxPaths: 1})
	assert.Len(t, paths, 1)

	none := tr.Traverse([]string{"A"}, kg.TraverseOptions{MaxDepth: 3, MaxPaths: 10, MinWeight: 99})
	assert.Empty(t, none)
}

func TestTraverseRelationFilter(t *testing.T) {
	g := kg.NewMemoryGraph()
	g.AddEdge(kg.Edge{Source: "A", Target: "B", Relation: "keep", Weight: 1})
	g.AddEdge(kg.Edge{Source: "A", Target: "C", Relation: "drop", Weight: 1})
	tr := kg.NewTraverser(g)

	paths := tr.Traverse([]string{"A"}, kg.TraverseOptions{
		MaxDepth:       2,
		MaxPaths:       10,
		RelationFilter: []string{"keep"},
	})
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"A", "B"}, paths[0].Nodes)
}

func TestTraverseUnknownEntity(t *testing.T) {
	tr := kg.NewTraverser(chainGraph())
	assert.Empty(t, tr.Traverse([]string{"zzz"}, kg.DefaultTraverseOptions()))
	assert.Empty(t, tr.Traverse(nil, kg.DefaultTraverseOptions()))
}

func TestTraverseNilGraph(t *testing.T) {
	tr := kg.NewTraverser(nil)
	assert.Empty(t, tr.Traverse([]string{"A"}, kg.DefaultTraverseOptions()))
}

func TestFindConnections(t *testing.T) {
	tr := kg.NewTraverser(chainGraph())

	paths := tr.FindConnections("A", "D", 3)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"A", "B", "C", "D"}, paths[0].Nodes)

	assert.Empty(t, tr.FindConnections("A", "E", 3), "E is four hops away")
}

func TestTraverseContextRendering(t *testing.T) {
	g := kg.NewMemoryGraph()
	g.AddEdge(kg.Edge{Source: "Saturn", Target: "House10", Relation: "in", Desc: "career pressure", Weight: 0.9})
	tr := kg.NewTraverser(g)

	paths := tr.Traverse([]string{"saturn"}, kg.TraverseOptions{MaxDepth: 1, MaxPaths: 1})
	require.Len(t, paths, 1)
	assert.Equal(t, "Saturn --[in]--> House10: career pressure", paths[0].Context)
}

func TestFindNodesCaseInsensitive(t *testing.T) {
	g := chainGraph()
	g.AddNode("Saturn")
	assert.Equal(t, []string{"Saturn"}, g.FindNodes("SATURN"))
}
