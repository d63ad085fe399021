package graph

import "fmt"

// TogglePolicy decides which component stays active when removing elements
// disconnects the graph.
type TogglePolicy int

const (
	NoToggle TogglePolicy = iota
	KeepLargest
	KeepFromNode
	KeepAll
)

func (p TogglePolicy) String() string {
	switch p {
	case NoToggle:
		return "no_toggle"
	case KeepLargest:
		return "keep_largest"
	case KeepFromNode:
		return "keep_from_node"
	case KeepAll:
		return "keep_all"
	default:
		return fmt.Sprintf("TogglePolicy(%d)", int(p))
	}
}

// FindComponents returns the weakly connected components of the graph, each
// listing its nodes in discovery order. Any policy other than NoToggle first
// drops every removed node and edge.
func FindComponents(g *Graph, policy TogglePolicy) [][]NodeID {
	view := g
	if policy != NoToggle {
		view = ActiveSubgraph(g)
	}

	visited := make(map[NodeID]bool, view.NumNodes())
	var components [][]NodeID

	for _, start := range view.NodeIDs() {
		if visited[start] {
			continue
		}

		visited[start] = true
		component := []NodeID{start}
		for i := 0; i < len(component); i++ {
			for _, next := range view.Neighbors(component[i]) {
				if !visited[next] {
					visited[next] = true
					component = append(component, next)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

// LargestComponent returns the index of the first component of maximum size
func LargestComponent(components [][]NodeID) int {
	best := -1
	for i, c := range components {
		if best == -1 || len(c) > len(components[best]) {
			best = i
		}
	}
	return best
}

// FindDisconnectedElements picks the component to keep according to the
// policy and returns the nodes and edges of every other component. keep is
// only consulted by KeepFromNode. Nothing is reported for a connected graph,
// for KeepAll and NoToggle, or when the kept component cannot be resolved.
func FindDisconnectedElements(g *Graph, policy TogglePolicy, keep *NodeID) ([]NodeID, []EdgeID) {
	components := FindComponents(g, policy)
	if len(components) <= 1 {
		return nil, nil
	}

	kept := -1
	switch policy {
	case KeepLargest:
		kept = LargestComponent(components)
	case KeepFromNode:
		if keep == nil {
			return nil, nil
		}
		for i, c := range components {
			if containsNode(c, *keep) {
				kept = i
				break
			}
		}
	default:
		return nil, nil
	}
	if kept < 0 {
		return nil, nil
	}

	inOther := make(map[NodeID]bool)
	var nodes []NodeID
	for i, c := range components {
		if i == kept {
			continue
		}
		for _, id := range c {
			inOther[id] = true
			nodes = append(nodes, id)
		}
	}

	var edges []EdgeID
	for _, e := range g.Edges() {
		if e.IsRemoved && policy != NoToggle {
			continue
		}
		if inOther[e.Src] && inOther[e.Dst] {
			edges = append(edges, e.ID())
		}
	}
	return nodes, edges
}

func containsNode(nodes []NodeID, id NodeID) bool {
	for _, n := range nodes {
		if n == id {
			return true
		}
	}
	return false
}
