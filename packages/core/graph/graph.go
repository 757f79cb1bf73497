package graph

import (
	"container/heap"
	"sort"
)

// Graph is a directed dependency graph keyed by suite identity. It is not
// safe for concurrent writes.
type Graph struct {
	nodes    []string
	index    map[string]int
	outgoing [][]int
	incoming [][]int
	edges    map[[2]int]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[[2]int]struct{}),
	}
}

// AddNode adds id if it is not already present. Insertion order is the tie
// breaker used by TopologicalSort.
func (g *Graph) AddNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.outgoing = append(g.outgoing, nil)
	g.incoming = append(g.incoming, nil)
}

// AddEdge records that from must execute before to. Both nodes must exist.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) error {
	f, ok := g.index[from]
	if !ok {
		return unknownNode(from)
	}
	t, ok := g.index[to]
	if !ok {
		return unknownNode(to)
	}
	key := [2]int{f, t}
	if _, dup := g.edges[key]; dup {
		return nil
	}
	g.edges[key] = struct{}{}
	g.outgoing[f] = append(g.outgoing[f], t)
	g.incoming[t] = append(g.incoming[t], f)
	return nil
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Dependencies returns the direct predecessors of id in insertion order.
func (g *Graph) Dependencies(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.incoming[i])
}

// Dependents returns the direct successors of id in insertion order.
func (g *Graph) Dependents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.outgoing[i])
}

func (g *Graph) names(idx []int) []string {
	sorted := append([]int(nil), idx...)
	sort.Ints(sorted)
	out := make([]string, len(sorted))
	for i, n := range sorted {
		out[i] = g.nodes[n]
	}
	return out
}

// Descendants returns every node reachable from id by following edges
// forward, in insertion order. id itself is not included unless it sits on
// a cycle.
func (g *Graph) Descendants(id string) []string {
	start, ok := g.index[id]
	if !ok {
		return nil
	}
	seen := make([]bool, len(g.nodes))
	stack := append([]int(nil), g.outgoing[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.outgoing[n]...)
	}

	var out []string
	for i, ok := range seen {
		if ok {
			out = append(out, g.nodes[i])
		}
	}
	return out
}

// TopologicalSort returns every node such that each edge's source precedes
// its target. Among nodes that are ready at the same time the earliest
// inserted comes first. A cycle yields a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make([]int, len(g.nodes))
	for i := range g.nodes {
		inDegree[i] = len(g.incoming[i])
	}

	ready := &indexHeap{}
	for i, d := range inDegree {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		order = append(order, g.nodes[n])
		for _, next := range g.outgoing[n] {
			inDegree[next]--
			if inDegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &CycleError{Path: g.findCycle(inDegree)}
	}
	return order, nil
}

// findCycle walks the nodes left with a positive in-degree after Kahn's
// algorithm; each of them has a predecessor that is also left, so following
// predecessors must revisit a node.
func (g *Graph) findCycle(inDegree []int) []string {
	start := -1
	for i, d := range inDegree {
		if d > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	pos := make(map[int]int)
	var walk []int
	n := start
	for {
		if p, ok := pos[n]; ok {
			walk = walk[p:]
			break
		}
		pos[n] = len(walk)
		walk = append(walk, n)
		next := -1
		for _, pred := range g.incoming[n] {
			if inDegree[pred] > 0 {
				next = pred
				break
			}
		}
		if next < 0 {
			return nil
		}
		n = next
	}

	// walk follows edges backwards; report it in execution direction and
	// close the loop.
	path := make([]string, 0, len(walk)+1)
	for i := len(walk) - 1; i >= 0; i-- {
		path = append(path, g.nodes[walk[i]])
	}
	return append(path, path[0])
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
