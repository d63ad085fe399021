package editor

import (
	"log"
	"strings"

	"coverage-route-server/graph"
)

// Toggle flips the removed flag of the selected nodes and edges. A node
// drags its incident edges along to its new state. An edge reference
// without a key selects every parallel edge between its endpoints.
type Toggle struct {
	Nodes []graph.NodeID
	Edges []graph.EdgeRef

	changes flips
}

func NewToggle(sel Selection) *Toggle {
	return &Toggle{Nodes: sel.Nodes, Edges: sel.Edges}
}

func (c *Toggle) execute(e *Editor) error {
	if len(c.Nodes) == 0 && len(c.Edges) == 0 {
		return ErrCancelled
	}
	g := e.graph
	c.changes = flips{attr: graph.AttrRemoved}
	seen := make(map[graph.EdgeID]bool)

	for _, id := range c.Nodes {
		if !c.changes.flipNode(g, id) {
			continue
		}
		removed := graph.NodeAttr(g, id, graph.AttrRemoved)
		for _, edge := range g.Incident(id) {
			eid := edge.ID()
			if seen[eid] {
				continue
			}
			seen[eid] = true
			if edge.IsRemoved != removed {
				c.changes.flipEdge(g, eid)
			}
		}
	}

	for _, ref := range c.Edges {
		ids := graph.ResolveEdgeRef(g, ref)
		if len(ids) == 0 {
			log.Printf("WARNING: Edge %d <-> %d doesn't exist, skipping...", ref.Src, ref.Dst)
			continue
		}
		for _, eid := range ids {
			if !seen[eid] {
				seen[eid] = true
				c.changes.flipEdge(g, eid)
			}
		}
	}

	e.cascade(&c.changes)
	return nil
}

// ToggleType flips the removed flag of every edge with the given highway
// type. A leading "-" selects every typed edge of another type instead.
type ToggleType struct {
	Type string

	changes flips
}

func (c *ToggleType) execute(e *Editor) error {
	typ, negate := strings.CutPrefix(strings.TrimSpace(c.Type), "-")
	if typ == "" {
		return ErrCancelled
	}

	c.changes = flips{attr: graph.AttrRemoved}
	for _, edge := range e.graph.Edges() {
		if edge.Highway == "" {
			continue
		}
		if (edge.Highway == typ) != negate {
			c.changes.flipEdge(e.graph, edge.ID())
		}
	}
	log.Printf("Toggled %d edges of type %q (negated: %t)", len(c.changes.edges), typ, negate)

	e.cascade(&c.changes)
	return nil
}

// cascade removes whatever the configured policy no longer keeps and folds
// it into the changes, so a single undo reverts both.
func (e *Editor) cascade(changes *flips) {
	if e.opts.Policy == graph.NoToggle {
		return
	}
	nodes, edges := graph.FindDisconnectedElements(e.graph, e.opts.Policy, e.opts.KeepNode)
	for _, id := range nodes {
		changes.flipNode(e.graph, id)
	}
	for _, id := range edges {
		changes.flipEdge(e.graph, id)
	}
	if len(nodes) > 0 || len(edges) > 0 {
		log.Printf("Policy %s disconnected %d nodes and %d edges", e.opts.Policy, len(nodes), len(edges))
	}
}

// Highlight flips the highlighted flag of the selected nodes and edges
type Highlight struct {
	Nodes []graph.NodeID
	Edges []graph.EdgeRef

	changes flips
}

func NewHighlight(sel Selection) *Highlight {
	return &Highlight{Nodes: sel.Nodes, Edges: sel.Edges}
}

func (c *Highlight) execute(e *Editor) error {
	if len(c.Nodes) == 0 && len(c.Edges) == 0 {
		return ErrCancelled
	}
	c.changes = flips{attr: graph.AttrHighlighted}
	for _, id := range c.Nodes {
		c.changes.flipNode(e.graph, id)
	}
	for _, ref := range c.Edges {
		for _, eid := range graph.ResolveEdgeRef(e.graph, ref) {
			c.changes.flipEdge(e.graph, eid)
		}
	}
	return nil
}

// HighlightByName flips the highlighted flag of every edge carrying one of
// the street names. Used to mark completed streets.
type HighlightByName struct {
	Names []string

	changes flips
}

func (c *HighlightByName) execute(e *Editor) error {
	if len(c.Names) == 0 {
		return ErrCancelled
	}
	c.changes = flips{attr: graph.AttrHighlighted}
	for _, edge := range e.graph.Edges() {
		for _, name := range c.Names {
			if edge.HasName(name) {
				c.changes.flipEdge(e.graph, edge.ID())
				break
			}
		}
	}
	if c.changes.empty() {
		log.Printf("WARNING: No edge named %s", strings.Join(c.Names, ", "))
	}
	return nil
}
