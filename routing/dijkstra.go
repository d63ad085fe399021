package routing

import (
	"container/heap"
	"math"

	"coverage-route-server/graph"
)

// PriorityQueueItem is a node waiting in the Dijkstra frontier
type PriorityQueueItem struct {
	NodeID   graph.NodeID
	Priority float64
	Order    int // Push counter, breaks priority ties in discovery order
	Index    int
}

type PriorityQueue []*PriorityQueueItem

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].Priority == pq[j].Priority {
		return pq[i].Order < pq[j].Order
	}
	return pq[i].Priority < pq[j].Priority
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*PriorityQueueItem)
	item.Index = n
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	*pq = old[0 : n-1]
	return item
}

// CostFunc returns the cost of traversing e starting from node from
type CostFunc func(from graph.NodeID, e *graph.Edge) float64

// ByDistance is the default cost: the physical length of the edge
func ByDistance(_ graph.NodeID, e *graph.Edge) float64 {
	return e.Distance
}

// ShortestPaths is the single-source result of Dijkstra's algorithm
type ShortestPaths struct {
	Source graph.NodeID
	Dist   map[graph.NodeID]float64
	prev   map[graph.NodeID]graph.NodeID
}

// Dijkstra computes the cheapest path from source to every reachable node.
// Directed graphs are only walked along the stored edge direction.
func Dijkstra(g *graph.Graph, source graph.NodeID, cost CostFunc) *ShortestPaths {
	if cost == nil {
		cost = ByDistance
	}

	sp := &ShortestPaths{
		Source: source,
		Dist:   make(map[graph.NodeID]float64),
		prev:   make(map[graph.NodeID]graph.NodeID),
	}
	if !g.HasNode(source) {
		return sp
	}

	openSet := &PriorityQueue{}
	heap.Init(openSet)

	order := 0
	sp.Dist[source] = 0
	heap.Push(openSet, &PriorityQueueItem{NodeID: source, Priority: 0, Order: order})
	settled := make(map[graph.NodeID]bool)

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*PriorityQueueItem)
		node := current.NodeID
		if settled[node] {
			continue
		}
		settled[node] = true

		for _, e := range g.Incident(node) {
			if g.Directed && e.Src != node {
				continue
			}
			next := e.Other(node)
			if settled[next] {
				continue
			}

			tentative := sp.Dist[node] + cost(node, e)
			if existing, ok := sp.Dist[next]; !ok || tentative < existing {
				sp.Dist[next] = tentative
				sp.prev[next] = node
				order++
				heap.Push(openSet, &PriorityQueueItem{NodeID: next, Priority: tentative, Order: order})
			}
		}
	}
	return sp
}

// PathTo rebuilds the node sequence from the source to dst
func (sp *ShortestPaths) PathTo(dst graph.NodeID) ([]graph.NodeID, bool) {
	if _, ok := sp.Dist[dst]; !ok {
		return nil, false
	}

	path := []graph.NodeID{dst}
	for current := dst; current != sp.Source; {
		current = sp.prev[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// DistanceTo returns the cost of the cheapest path to dst, or +Inf
func (sp *ShortestPaths) DistanceTo(dst graph.NodeID) float64 {
	if d, ok := sp.Dist[dst]; ok {
		return d
	}
	return math.Inf(1)
}

// ShortestPath returns the shortest path by distance between two nodes
func ShortestPath(g *graph.Graph, src, dst graph.NodeID) ([]graph.NodeID, bool) {
	return Dijkstra(g, src, ByDistance).PathTo(dst)
}
