package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func indexOf(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, n := range order {
		idx[n] = i
	}
	return idx
}

func TestTopologicalSort_Diamond(t *testing.T) {
	g := build(t, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"A", "C"}})

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)

	reverse := make([]string, len(order))
	for i, n := range order {
		reverse[len(order)-1-i] = n
	}
	assert.Equal(t, []string{"C", "B", "A"}, reverse)
}

func TestTopologicalSort_StableTies(t *testing.T) {
	g := build(t, []string{"d", "c", "b", "a"}, [][2]string{{"a", "d"}})

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	// d waits for a; the others keep insertion order.
	assert.Equal(t, []string{"c", "b", "a", "d"}, order)

	again, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestTopologicalSort_ValidLinearization(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(12)
		nodes := make([]string, n)
		for i := range nodes {
			nodes[i] = fmt.Sprintf("n%02d", i)
		}
		// Edges only go from lower to higher index, so the graph is acyclic;
		// insertion order is shuffled to exercise the tie breaking.
		var edges [][2]string
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rng.Intn(4) == 0 {
					edges = append(edges, [2]string{nodes[i], nodes[j]})
				}
			}
		}
		shuffled := append([]string(nil), nodes...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		g := build(t, shuffled, edges)
		order, err := g.TopologicalSort()
		require.NoError(t, err)
		require.Len(t, order, n)

		idx := indexOf(order)
		for _, e := range edges {
			assert.Less(t, idx[e[0]], idx[e[1]], "edge %s -> %s", e[0], e[1])
		}
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
	}{
		{"two nodes", []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}}},
		{"self loop", []string{"a"}, [][2]string{{"a", "a"}}},
		{"behind a chain", []string{"root", "x", "y", "z"}, [][2]string{{"root", "x"}, {"x", "y"}, {"y", "z"}, {"z", "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			order, err := g.TopologicalSort()
			assert.Nil(t, order)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCyclicDependency))

			var cerr *CycleError
			require.ErrorAs(t, err, &cerr)
			require.GreaterOrEqual(t, len(cerr.Path), 2)
			assert.Equal(t, cerr.Path[0], cerr.Path[len(cerr.Path)-1])

			edges := make(map[[2]string]bool)
			for _, e := range tt.edges {
				edges[e] = true
			}
			for i := 0; i+1 < len(cerr.Path); i++ {
				assert.True(t, edges[[2]string{cerr.Path[i], cerr.Path[i+1]}], "path step %v", cerr.Path)
			}
		})
	}
}

func TestAddEdge_UnknownNode(t *testing.T) {
	g := New()
	g.AddNode("a")

	err := g.AddEdge("a", "missing")
	assert.ErrorIs(t, err, ErrUnknownNode)
	err = g.AddEdge("missing", "a")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestAddEdge_Duplicate(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
}

func TestDescendants(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}, {"d", "c"}},
	)

	assert.Equal(t, []string{"b", "c", "d"}, g.Descendants("a"))
	assert.Equal(t, []string{"c"}, g.Descendants("b"))
	assert.Empty(t, g.Descendants("c"))
	assert.Empty(t, g.Descendants("e"))
	assert.Nil(t, g.Descendants("missing"))
}

func TestNodesAndHas(t *testing.T) {
	g := New()
	g.AddNode("x")
	g.AddNode("y")
	g.AddNode("x")

	assert.Equal(t, []string{"x", "y"}, g.Nodes())
	assert.True(t, g.Has("y"))
	assert.False(t, g.Has("z"))
}
