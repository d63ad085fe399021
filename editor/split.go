package editor

import (
	"context"
	"fmt"
	"log"

	"coverage-route-server/graph"
	"coverage-route-server/utils"
)

// SplitGraph cuts the graph along the seed nodes and edges and saves every
// resulting component as <BaseName>-<n>. The seeds, and every edge touching
// a seed node, are flagged removed first. With IncludeSeeds each saved
// component keeps the adjacent seed nodes and seed edges, active, so a
// boundary street appears on both sides. Without a BaseName the components
// are computed but nothing is saved.
type SplitGraph struct {
	Nodes        []graph.NodeID
	Edges        []graph.EdgeRef
	BaseName     string
	IncludeSeeds bool

	changes    flips
	components [][]graph.NodeID
	saved      []string
}

// Components returns the components found by the last execution
func (c *SplitGraph) Components() [][]graph.NodeID { return c.components }

// Saved returns the names the components were saved under
func (c *SplitGraph) Saved() []string { return append([]string(nil), c.saved...) }

func (c *SplitGraph) execute(ctx context.Context, e *Editor) error {
	if c.BaseName != "" && e.opts.Saver == nil {
		return ErrNoSaver
	}
	g := e.graph
	c.changes = flips{attr: graph.AttrRemoved}
	seen := make(map[graph.EdgeID]bool)

	for _, id := range c.Nodes {
		if !c.changes.flipNode(g, id) {
			continue
		}
		for _, edge := range g.Incident(id) {
			if !seen[edge.ID()] {
				seen[edge.ID()] = true
				c.changes.flipEdge(g, edge.ID())
			}
		}
	}
	for _, ref := range c.Edges {
		for _, eid := range graph.ResolveEdgeRef(g, ref) {
			if !seen[eid] {
				seen[eid] = true
				c.changes.flipEdge(g, eid)
			}
		}
	}

	if err := c.save(ctx, e); err != nil {
		c.changes.flip(g)
		return err
	}
	return nil
}

// save finds the components of the cut graph and hands each one to the
// saver
func (c *SplitGraph) save(ctx context.Context, e *Editor) error {
	g := e.graph
	c.components = graph.FindComponents(g, graph.KeepAll)
	c.saved = c.saved[:0]
	for n, component := range c.components {
		preview := component
		if len(preview) > 5 {
			preview = preview[:5]
		}
		log.Printf("Component %d has %d nodes: %v", n+1, len(component), preview)
	}
	if c.BaseName == "" {
		return nil
	}
	if e.opts.Saver == nil {
		return ErrNoSaver
	}

	for n, component := range c.components {
		name := utils.ComponentName(c.BaseName, n+1)
		part := c.part(g, component)
		if err := e.opts.Saver.SaveGraph(ctx, name, part); err != nil {
			return fmt.Errorf("saving component %d: %w", n+1, err)
		}
		c.saved = append(c.saved, name)
	}
	return nil
}

func (c *SplitGraph) part(g *graph.Graph, component []graph.NodeID) *graph.Graph {
	if !c.IncludeSeeds {
		return graph.Subgraph(g, component)
	}

	members := make(map[graph.NodeID]bool, len(component))
	for _, id := range component {
		members[id] = true
	}
	nodes := append([]graph.NodeID(nil), component...)
	var seeds []graph.NodeID
	for _, seed := range c.changes.nodes {
		for _, nb := range g.Neighbors(seed) {
			if members[nb] {
				nodes = append(nodes, seed)
				seeds = append(seeds, seed)
				break
			}
		}
	}

	part := graph.Subgraph(g, nodes)
	for _, id := range seeds {
		graph.SetNodeAttr(part, id, graph.AttrRemoved, false)
	}
	for _, id := range c.changes.edges {
		graph.SetEdgeAttr(part, id, graph.AttrRemoved, false)
	}
	return part
}
