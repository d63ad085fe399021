package editor

import "coverage-route-server/graph"

// Command is one undoable edit. The set of commands is closed: the editor
// dispatches on the concrete type and each variant carries the state its
// undo needs.
type Command interface {
	Name() string
	command()
}

func (*Toggle) Name() string          { return "toggle" }
func (*ToggleType) Name() string      { return "toggle_type" }
func (*Highlight) Name() string       { return "highlight" }
func (*HighlightByName) Name() string { return "highlight_by_name" }
func (*AddNode) Name() string         { return "add_node" }
func (*AddNodes) Name() string        { return "add_nodes" }
func (*AddEdge) Name() string         { return "add_edge" }
func (*AddEdges) Name() string        { return "add_edges" }
func (*RemoveToggled) Name() string   { return "remove_toggled" }
func (*ExtendGraph) Name() string     { return "extend_graph" }
func (*SplitGraph) Name() string      { return "split_graph" }
func (*SetDistances) Name() string    { return "set_distances" }
func (*SaveGraph) Name() string       { return "save_graph" }

func (*Toggle) command()          {}
func (*ToggleType) command()      {}
func (*Highlight) command()       {}
func (*HighlightByName) command() {}
func (*AddNode) command()         {}
func (*AddNodes) command()        {}
func (*AddEdge) command()         {}
func (*AddEdges) command()        {}
func (*RemoveToggled) command()   {}
func (*ExtendGraph) command()     {}
func (*SplitGraph) command()      {}
func (*SetDistances) command()    {}
func (*SaveGraph) command()       {}

// flips records every flag flip a command made. Flips commute, so applying
// the same list again restores the previous state and applying it once more
// redoes the edit.
type flips struct {
	attr  graph.Attr
	nodes []graph.NodeID
	edges []graph.EdgeID
}

func (f *flips) flip(g *graph.Graph) {
	for _, id := range f.nodes {
		graph.ToggleNodeAttr(g, id, f.attr)
	}
	for _, id := range f.edges {
		graph.ToggleEdgeAttr(g, id, f.attr)
	}
}

func (f *flips) flipNode(g *graph.Graph, id graph.NodeID) bool {
	if !graph.ToggleNodeAttr(g, id, f.attr) {
		return false
	}
	f.nodes = append(f.nodes, id)
	return true
}

func (f *flips) flipEdge(g *graph.Graph, id graph.EdgeID) bool {
	if !graph.ToggleEdgeAttr(g, id, f.attr) {
		return false
	}
	f.edges = append(f.edges, id)
	return true
}

func (f *flips) empty() bool { return len(f.nodes) == 0 && len(f.edges) == 0 }

// elements holds deep copies of nodes and edges a command inserted into or
// deleted from the graph.
type elements struct {
	nodes []*graph.Node
	edges []*graph.Edge
}

func (el *elements) addNode(n *graph.Node) { el.nodes = append(el.nodes, n.Clone()) }
func (el *elements) addEdge(e *graph.Edge) { el.edges = append(el.edges, e.Clone()) }

// restore inserts the saved elements, edges under their recorded keys
func (el *elements) restore(g *graph.Graph) {
	for _, n := range el.nodes {
		g.PutNode(n.Clone())
	}
	for _, e := range el.edges {
		g.AddEdgeWithKey(e.Clone())
	}
}

// remove deletes the saved elements, edges first
func (el *elements) remove(g *graph.Graph) {
	for i := len(el.edges) - 1; i >= 0; i-- {
		g.RemoveEdge(el.edges[i].ID())
	}
	for i := len(el.nodes) - 1; i >= 0; i-- {
		g.RemoveNode(el.nodes[i].ID)
	}
}
