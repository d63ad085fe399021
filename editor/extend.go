package editor

import (
	"log"

	"coverage-route-server/graph"
)

// ExtendGraph merges another graph into the edited one. Nodes at a position
// that already exists are mapped onto the existing node, the others get
// fresh ids. Streets already present are skipped. Merged elements arrive
// flagged as removed unless KeepActive is set.
type ExtendGraph struct {
	Other      *graph.Graph
	KeepActive bool

	added elements
}

func (c *ExtendGraph) execute(e *Editor) error {
	if c.Other == nil || c.Other.NumNodes() == 0 {
		return ErrCancelled
	}
	g := e.graph
	c.added = elements{}
	mapping := make(map[graph.NodeID]graph.NodeID, c.Other.NumNodes())

	for _, n := range c.Other.Nodes() {
		if existing, ok := graph.FindNode(n, g); ok {
			mapping[n.ID] = existing
			continue
		}
		node := n.Clone()
		node.ID = g.NextNodeID()
		node.IsRemoved = !c.KeepActive
		g.PutNode(node)
		mapping[n.ID] = node.ID
		c.added.addNode(node)
	}

	skipped := 0
	for _, edge := range c.Other.Edges() {
		if _, ok := graph.FindMatchingEdge(edge, c.Other, g); ok {
			skipped++
			continue
		}

		u, v := mapping[edge.Src], mapping[edge.Dst]
		before := make(map[int]bool)
		for _, k := range g.KeysBetween(u, v) {
			before[k] = true
		}

		merged := edge.Clone()
		merged.Src, merged.Dst = u, v
		merged.IsRemoved = !c.KeepActive
		id := g.AddEdge(merged)

		var fresh []int
		for _, k := range g.KeysBetween(u, v) {
			if !before[k] {
				fresh = append(fresh, k)
			}
		}
		if len(fresh) != 1 || fresh[0] != id.Key {
			log.Printf("ERROR: Expected one new key between %d and %d, got %v", u, v, fresh)
			g.RemoveEdge(id)
			continue
		}

		stored, _ := g.Edge(id)
		c.added.addEdge(stored)
	}

	log.Printf("Extended graph with %d nodes and %d edges (%d edges already present)",
		len(c.added.nodes), len(c.added.edges), skipped)
	return nil
}
