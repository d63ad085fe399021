package editor

import (
	"fmt"
	"log"

	"coverage-route-server/graph"
)

// AddNode inserts a node at a location under the next free id
type AddNode struct {
	Lat float64
	Lng float64

	id graph.NodeID
}

// ID returns the id the node was last inserted under
func (c *AddNode) ID() graph.NodeID { return c.id }

func (c *AddNode) execute(e *Editor) error {
	c.id = e.graph.NextNodeID()
	e.graph.AddNode(c.id, c.Lat, c.Lng)
	log.Printf("Added node %d at (%f, %f)", c.id, c.Lat, c.Lng)
	return nil
}

// redo allocates a fresh id: the old one may have been taken meanwhile
func (c *AddNode) redo(e *Editor) {
	c.id = e.graph.NextNodeID()
	e.graph.AddNode(c.id, c.Lat, c.Lng)
}

// AddNodes inserts one node per coordinate
type AddNodes struct {
	Coords []graph.Coord

	ids []graph.NodeID
}

func (c *AddNodes) IDs() []graph.NodeID { return append([]graph.NodeID(nil), c.ids...) }

func (c *AddNodes) execute(e *Editor) error {
	if len(c.Coords) == 0 {
		return ErrCancelled
	}
	c.redo(e)
	return nil
}

func (c *AddNodes) redo(e *Editor) {
	c.ids = c.ids[:0]
	for _, coord := range c.Coords {
		id := e.graph.NextNodeID()
		e.graph.AddNode(id, coord.Lat, coord.Lng)
		c.ids = append(c.ids, id)
	}
}

// AddEdge draws a straight street between two existing nodes. An undirected
// street in a directed graph gets an explicit mirror edge.
type AddEdge struct {
	Src        graph.NodeID
	Dst        graph.NodeID
	Undirected bool

	added elements
}

// NewAddEdge builds the command from user supplied node ids
func NewAddEdge(src, dst string, undirected bool) (*AddEdge, error) {
	s, err := ParseNodeID(src)
	if err != nil {
		return nil, err
	}
	d, err := ParseNodeID(dst)
	if err != nil {
		return nil, err
	}
	return &AddEdge{Src: s, Dst: d, Undirected: undirected}, nil
}

func (c *AddEdge) execute(e *Editor) error {
	if err := requireNodes(e.graph, c.Src, c.Dst); err != nil {
		return err
	}
	c.added = elements{}
	e.drawEdge(&c.added, c.Src, c.Dst, c.Undirected)
	return nil
}

// AddEdges draws a street along each consecutive pair of every path. A
// pair already drawn in either direction is skipped.
type AddEdges struct {
	Paths [][]graph.NodeID

	added elements
}

func (c *AddEdges) execute(e *Editor) error {
	type pair [2]graph.NodeID
	seen := make(map[pair]bool)
	var pairs []pair

	for _, path := range c.Paths {
		if err := requireNodes(e.graph, path...); err != nil {
			return err
		}
		for i := 1; i < len(path); i++ {
			p := pair{path[i-1], path[i]}
			if p[0] == p[1] || seen[p] || seen[pair{p[1], p[0]}] {
				continue
			}
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		return ErrCancelled
	}

	c.added = elements{}
	for _, p := range pairs {
		e.drawEdge(&c.added, p[0], p[1], true)
	}
	return nil
}

func requireNodes(g *graph.Graph, ids ...graph.NodeID) error {
	for _, id := range ids {
		if !g.HasNode(id) {
			return fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
	}
	return nil
}

// drawEdge inserts a self-created edge and its mirror when needed, recording
// both in added.
func (e *Editor) drawEdge(added *elements, src, dst graph.NodeID, undirected bool) {
	g := e.graph
	pairs := [][2]graph.NodeID{{src, dst}}
	if undirected && g.Directed {
		pairs = append(pairs, [2]graph.NodeID{dst, src})
	}

	for _, p := range pairs {
		edge := &graph.Edge{
			Src:         p[0],
			Dst:         p[1],
			Highway:     e.opts.DefaultHighway,
			Oneway:      !undirected,
			SelfCreated: true,
		}
		a, okA := graph.NodeLocation(g, p[0])
		b, okB := graph.NodeLocation(g, p[1])
		if okA && okB {
			edge.Distance = graph.GeodesicDistance(a, b)
			edge.Geometry = graph.StraightLine(a, b)
		}

		id := g.AddEdge(edge)
		stored, _ := g.Edge(id)
		added.addEdge(stored)
		log.Printf("Added edge %d -> %d (%d), %.1fm", id.Src, id.Dst, id.Key, edge.Distance)
	}
}
