package plan

import (
	"container/heap"
	"sort"

	"github.com/hammamikhairi/cookplan/internal/domain"
)

// graph is the stage dependency graph indexed by plan position. Edges run
// from a dependency to its dependents.
type graph struct {
	keys     []string
	indeg    []int
	outgoing [][]int
}

func newGraph(stages []domain.Stage, index map[string]int) *graph {
	g := &graph{
		keys:     make([]string, len(stages)),
		indeg:    make([]int, len(stages)),
		outgoing: make([][]int, len(stages)),
	}
	for i, st := range stages {
		g.keys[i] = st.Key
		for _, dep := range st.DependsOn {
			from, ok := index[dep]
			if !ok {
				continue
			}
			g.outgoing[from] = append(g.outgoing[from], i)
			g.indeg[i]++
		}
	}
	for i := range g.outgoing {
		sort.Ints(g.outgoing[i])
	}
	return g
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrder runs Kahn's algorithm with a min-heap on plan index. The result
// is shorter than the stage count iff the graph has a cycle.
func (g *graph) topoOrder() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycle returns one cycle as a closed key path (first == last), found by
// a DFS in plan order so the same plan always reports the same witness.
func (g *graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.keys))
	parent := make([]int, len(g.keys))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v closes v -> ... -> u -> v.
				path := []int{v}
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					path = append(path, cur)
				}
				path = append(path, v)
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				cycle = path
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.keys {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, len(cycle))
	for i, idx := range cycle {
		out[i] = g.keys[idx]
	}
	return out
}
