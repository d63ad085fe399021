package graph

import "reflect"

// Snapshot is the serializable form of a Graph, handed to persisters.
// Slices keep the iteration order of the graph.
type Snapshot struct {
	Directed bool   `json:"directed"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
}

func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Directed: g.Directed,
		Nodes:    make([]Node, 0, g.NumNodes()),
		Edges:    make([]Edge, 0, g.NumEdges()),
	}
	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, *n.Clone())
	}
	for _, e := range g.Edges() {
		s.Edges = append(s.Edges, *e.Clone())
	}
	return s
}

// FromSnapshot rebuilds a graph, keeping every edge under its saved key
func FromSnapshot(s Snapshot) *Graph {
	g := New(s.Directed)
	for i := range s.Nodes {
		g.PutNode(s.Nodes[i].Clone())
	}
	for i := range s.Edges {
		g.AddEdgeWithKey(s.Edges[i].Clone())
	}
	return g
}

// Equal reports whether two graphs hold the same nodes and edges with the
// same attributes, regardless of insertion order.
func Equal(a, b *Graph) bool {
	if a.Directed != b.Directed || a.NumNodes() != b.NumNodes() || a.NumEdges() != b.NumEdges() {
		return false
	}
	for id, n := range a.nodes {
		other, ok := b.nodes[id]
		if !ok || !reflect.DeepEqual(n, other) {
			return false
		}
	}
	for id, e := range a.edges {
		other, ok := b.edges[id]
		if !ok || !reflect.DeepEqual(e, other) {
			return false
		}
	}
	return true
}
