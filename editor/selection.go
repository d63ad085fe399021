package editor

import (
	"fmt"
	"strconv"
	"strings"

	"coverage-route-server/graph"
)

// Selection is the parsed form of a node/edge list typed by the user
type Selection struct {
	Nodes []graph.NodeID
	Edges []graph.EdgeRef
}

func (s Selection) Empty() bool { return len(s.Nodes) == 0 && len(s.Edges) == 0 }

// ParseSelection reads a comma separated list of nodes ("12"), edges between
// two nodes with any key ("5-9") and edges with a given key ("6-9-2").
// Whitespace is ignored. "all" selects every removed node and edge of g.
func ParseSelection(g *graph.Graph, text string) (Selection, error) {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return Selection{}, ErrCancelled
	}
	if strings.EqualFold(text, "all") {
		return removedElements(g), nil
	}

	var sel Selection
	seenNodes := make(map[graph.NodeID]bool)
	seenEdges := make(map[string]bool)

	for _, item := range strings.Split(text, ",") {
		if item == "" {
			continue
		}
		parts := strings.Split(item, "-")
		ids := make([]int64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, item)
			}
			ids[i] = v
		}

		switch len(ids) {
		case 1:
			id := graph.NodeID(ids[0])
			if !seenNodes[id] {
				seenNodes[id] = true
				sel.Nodes = append(sel.Nodes, id)
			}
		case 2, 3:
			ref := graph.EdgeRef{Src: graph.NodeID(ids[0]), Dst: graph.NodeID(ids[1])}
			if len(ids) == 3 {
				key := int(ids[2])
				ref.Key = &key
			}
			if k := refKey(ref); !seenEdges[k] {
				seenEdges[k] = true
				sel.Edges = append(sel.Edges, ref)
			}
		default:
			return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, item)
		}
	}

	if sel.Empty() {
		return Selection{}, ErrCancelled
	}
	return sel, nil
}

func refKey(ref graph.EdgeRef) string {
	if ref.Key == nil {
		return fmt.Sprintf("%d-%d", ref.Src, ref.Dst)
	}
	return fmt.Sprintf("%d-%d-%d", ref.Src, ref.Dst, *ref.Key)
}

func removedElements(g *graph.Graph) Selection {
	var sel Selection
	for _, n := range g.Nodes() {
		if n.IsRemoved {
			sel.Nodes = append(sel.Nodes, n.ID)
		}
	}
	for _, e := range g.Edges() {
		if e.IsRemoved {
			key := e.Key
			sel.Edges = append(sel.Edges, graph.EdgeRef{Src: e.Src, Dst: e.Dst, Key: &key})
		}
	}
	return sel
}

// ParseNodeID reads a single node id
func ParseNodeID(text string) (graph.NodeID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrCancelled
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: node %q", ErrInvalidSelection, text)
	}
	return graph.NodeID(v), nil
}

// ParsePaths reads comma separated paths of dash separated node ids, e.g.
// "1-2-3,7-8"
func ParsePaths(text string) ([][]graph.NodeID, error) {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil, ErrCancelled
	}

	var paths [][]graph.NodeID
	for _, item := range strings.Split(text, ",") {
		if item == "" {
			continue
		}
		var path []graph.NodeID
		for _, p := range strings.Split(item, "-") {
			id, err := ParseNodeID(p)
			if err != nil {
				return nil, fmt.Errorf("%w: path %q", ErrInvalidSelection, item)
			}
			path = append(path, id)
		}
		if len(path) < 2 {
			return nil, fmt.Errorf("%w: path %q needs two nodes", ErrInvalidSelection, item)
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, ErrCancelled
	}
	return paths, nil
}
