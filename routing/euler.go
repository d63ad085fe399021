package routing

import (
	"math"

	"coverage-route-server/graph"
)

// DefaultTurnBackWeight deprioritizes walking straight back to the vertex
// just left. It is a soft penalty: the edge is still taken when nothing
// cheaper is available.
const DefaultTurnBackWeight = 1000

// PairKey is the order-insensitive key of the edge between u and v
func PairKey(u, v graph.NodeID) [2]graph.NodeID {
	if u > v {
		u, v = v, u
	}
	return [2]graph.NodeID{u, v}
}

type walkFrame struct {
	node graph.NodeID
	from graph.NodeID
	via  *graph.Edge
}

// EulerCircuit walks every edge of the undirected graph g exactly once,
// starting and ending at source, using Hierholzer's algorithm. At each
// vertex the cheapest edge is taken next: weights overrides the cost of an
// edge by its PairKey (default 0), and an edge back to the previous vertex
// costs turnBack unless overridden. Ties go to the first incident edge. A
// pair that received the penalty keeps it for the rest of the walk.
func EulerCircuit(g *graph.Graph, source graph.NodeID, weights map[[2]graph.NodeID]float64, turnBack float64) Circuit {
	if g.NumNodes() == 0 || !g.HasNode(source) {
		return Circuit{}
	}

	work := g.Copy()
	edgeWeights := make(map[[2]graph.NodeID]float64, len(weights))
	for k, v := range weights {
		edgeWeights[k] = v
	}

	var popped Circuit
	stack := []walkFrame{{node: source}}
	var last *graph.NodeID

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		current := top.node

		if work.Degree(current) == 0 {
			if top.via != nil {
				popped = append(popped, Step{Src: top.from, Dst: current, Edge: top.via})
			}
			stack = stack[:len(stack)-1]
		} else {
			e := chooseNextEdge(work, current, last, edgeWeights, turnBack)
			work.RemoveEdge(e.ID())
			stack = append(stack, walkFrame{node: e.Other(current), from: current, via: e})
		}

		previous := current
		last = &previous
	}

	circuit := make(Circuit, 0, len(popped))
	for i := len(popped) - 1; i >= 0; i-- {
		circuit = append(circuit, popped[i])
	}
	return circuit
}

func chooseNextEdge(g *graph.Graph, current graph.NodeID, last *graph.NodeID, weights map[[2]graph.NodeID]float64, turnBack float64) *graph.Edge {
	var best *graph.Edge
	bestWeight := math.Inf(1)

	for _, e := range g.Incident(current) {
		next := e.Other(current)
		key := PairKey(current, next)

		if last != nil && next == *last {
			if _, ok := weights[key]; !ok {
				weights[key] = turnBack
			}
		}

		if w := weights[key]; best == nil || w < bestWeight {
			best = e
			bestWeight = w
		}
	}
	return best
}
