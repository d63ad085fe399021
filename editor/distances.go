package editor

import (
	"log"

	"coverage-route-server/graph"
)

// SetDistances fills the distance of every edge without a positive one from
// the geodesic distance between its endpoints. Existing distances are never
// overwritten; undo restores the value each filled edge had before.
type SetDistances struct {
	filled []filledDistance
}

type filledDistance struct {
	id       graph.EdgeID
	previous float64
}

func (c *SetDistances) execute(e *Editor) error {
	g := e.graph
	c.filled = c.filled[:0]
	for _, edge := range g.Edges() {
		if edge.Distance > 0 {
			continue
		}
		a, okA := graph.NodeLocation(g, edge.Src)
		b, okB := graph.NodeLocation(g, edge.Dst)
		if !okA || !okB {
			log.Printf("WARNING: Edge %d -> %d (%d) has no location, skipping...", edge.Src, edge.Dst, edge.Key)
			continue
		}
		c.filled = append(c.filled, filledDistance{id: edge.ID(), previous: edge.Distance})
		edge.Distance = graph.GeodesicDistance(a, b)
	}
	log.Printf("Set the distance of %d edges", len(c.filled))
	return nil
}

func (c *SetDistances) undo(e *Editor) {
	for _, f := range c.filled {
		if edge, ok := e.graph.Edge(f.id); ok {
			edge.Distance = f.previous
		}
	}
}
