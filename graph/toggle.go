package graph

import "log"

// Attr names a boolean flag that can be toggled on nodes and edges
type Attr int

const (
	AttrRemoved Attr = iota
	AttrHighlighted
)

func (a Attr) String() string {
	if a == AttrHighlighted {
		return "is_highlighted"
	}
	return "is_removed"
}

func (n *Node) flag(attr Attr) *bool {
	if attr == AttrHighlighted {
		return &n.IsHighlighted
	}
	return &n.IsRemoved
}

func (e *Edge) flag(attr Attr) *bool {
	if attr == AttrHighlighted {
		return &e.IsHighlighted
	}
	return &e.IsRemoved
}

// NodeAttr reads a flag of a node; missing nodes read as false
func NodeAttr(g *Graph, id NodeID, attr Attr) bool {
	n, ok := g.Node(id)
	return ok && *n.flag(attr)
}

// EdgeAttr reads a flag of an edge; missing edges read as false
func EdgeAttr(g *Graph, id EdgeID, attr Attr) bool {
	e, ok := g.Edge(id)
	return ok && *e.flag(attr)
}

// ToggleNodeAttr flips a flag on a node. A missing node is logged and
// skipped.
func ToggleNodeAttr(g *Graph, id NodeID, attr Attr) bool {
	n, ok := g.Node(id)
	if !ok {
		log.Printf("WARNING: Node %d doesn't exist, skipping...", id)
		return false
	}
	f := n.flag(attr)
	*f = !*f
	return true
}

// ToggleEdgeAttr flips a flag on an edge. Undirected graphs also match the
// reversed id. A missing edge is logged and skipped.
func ToggleEdgeAttr(g *Graph, id EdgeID, attr Attr) bool {
	e, ok := g.Edge(id)
	if !ok {
		log.Printf("WARNING: Edge %d <-> %d (%d) doesn't exist, skipping...", id.Src, id.Dst, id.Key)
		return false
	}
	f := e.flag(attr)
	*f = !*f
	return true
}

// SetEdgeAttr sets a flag and reports whether it changed
func SetEdgeAttr(g *Graph, id EdgeID, attr Attr, value bool) bool {
	e, ok := g.Edge(id)
	if !ok {
		return false
	}
	f := e.flag(attr)
	if *f == value {
		return false
	}
	*f = value
	return true
}

// SetNodeAttr sets a flag and reports whether it changed
func SetNodeAttr(g *Graph, id NodeID, attr Attr, value bool) bool {
	n, ok := g.Node(id)
	if !ok {
		return false
	}
	f := n.flag(attr)
	if *f == value {
		return false
	}
	*f = value
	return true
}
