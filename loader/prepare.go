package loader

import (
	"log"

	"coverage-route-server/graph"
)

// Prepare turns a freshly loaded street network into an editable graph:
// node ids are renumbered to 0..n-1 in discovery order, roads the profile
// cannot be run on are flagged removed and missing distances are filled.
func Prepare(raw *graph.Graph, profile Profile) *graph.Graph {
	g := Renumber(raw)

	nonRunnable := 0
	for _, e := range g.Edges() {
		if !profile.Runnable(e.Highway) {
			if graph.SetEdgeAttr(g, e.ID(), graph.AttrRemoved, true) {
				nonRunnable++
			}
		}
	}
	filled := graph.AnnotateWithDistances(g)

	log.Printf("Loaded graph with %d nodes and %d edges (%d non-runnable, %d distances filled)",
		g.NumNodes(), g.NumEdges(), nonRunnable, filled)
	return g
}

// Renumber returns a copy with node ids 0..n-1 assigned in insertion order.
// Edges keep their keys.
func Renumber(raw *graph.Graph) *graph.Graph {
	ids := make(map[graph.NodeID]graph.NodeID, raw.NumNodes())
	g := graph.New(raw.Directed)
	for i, n := range raw.Nodes() {
		ids[n.ID] = graph.NodeID(i)
		node := n.Clone()
		node.ID = graph.NodeID(i)
		g.PutNode(node)
	}
	for _, e := range raw.Edges() {
		edge := e.Clone()
		edge.Src, edge.Dst = ids[e.Src], ids[e.Dst]
		g.AddEdgeWithKey(edge)
	}
	return g
}
