package editor

import (
	"log"

	"coverage-route-server/graph"
)

// RemoveToggled deletes every node and edge flagged as removed. Undo puts
// them back still flagged.
type RemoveToggled struct {
	removed elements
}

func (c *RemoveToggled) execute(e *Editor) error {
	g := e.graph
	c.removed = elements{}
	seen := make(map[graph.EdgeID]bool)

	for _, n := range g.Nodes() {
		if !n.IsRemoved {
			continue
		}
		c.removed.addNode(n)
		// RemoveNode takes the incident edges along, active or not
		for _, edge := range g.Incident(n.ID) {
			if !seen[edge.ID()] {
				seen[edge.ID()] = true
				c.removed.addEdge(edge)
			}
		}
	}
	for _, edge := range g.Edges() {
		if edge.IsRemoved && !seen[edge.ID()] {
			seen[edge.ID()] = true
			c.removed.addEdge(edge)
		}
	}

	if len(c.removed.nodes) == 0 && len(c.removed.edges) == 0 {
		log.Println("WARNING: Nothing is toggled, nothing to remove")
	}
	c.removed.remove(g)
	log.Printf("Removed %d nodes and %d edges", len(c.removed.nodes), len(c.removed.edges))
	return nil
}
