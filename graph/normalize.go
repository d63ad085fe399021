package graph

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	distanceTolerance = 1e-6 // meters
	pointTolerance    = 1e-7 // degrees, about a centimeter
)

// Normalized is the result of a normalization pass. Synthetic maps every
// midpoint node created by the pass to the edge it was split from; it is
// only meaningful for the lifetime of the pass output.
type Normalized struct {
	Graph     *Graph
	Synthetic map[NodeID]EdgeID
}

type nodePair [2]NodeID

func pairOf(src, dst NodeID, directed bool) nodePair {
	if !directed && dst < src {
		src, dst = dst, src
	}
	return nodePair{src, dst}
}

// ToSimpleDirected keeps the first edge between every (ordered) node pair
// and unrolls each further parallel edge through synthetic nodes.
func ToSimpleDirected(g *Graph) *Normalized {
	result := g.Copy()
	n := &Normalized{Graph: result, Synthetic: make(map[NodeID]EdgeID)}
	next := g.MaxNodeID() + 1

	kept := make(map[nodePair]*Edge)
	var split []splitEdge
	for _, e := range g.Edges() {
		p := pairOf(e.Src, e.Dst, g.Directed)
		first, ok := kept[p]
		if !ok {
			kept[p] = e
			continue
		}

		result.RemoveEdge(e.ID())

		// A loop stored once per direction is a single street
		if e.Src == e.Dst && g.Directed && isReverseTwin(first, e) {
			continue
		}

		// The opposite direction of an already split street shares its
		// synthetic nodes, walked in reverse
		if s, ok := findSplitTwin(split, e); ok && g.Directed {
			n.unrollThrough(e, reversedIDs(s.mids))
			continue
		}

		mids := n.unroll(g, e, next)
		next += NodeID(len(mids))
		split = append(split, splitEdge{edge: e, mids: mids})
	}
	return n
}

// ToSimpleUndirected collapses the graph into a simple undirected graph.
// The first edge between every unordered node pair is kept, the opposite
// direction of a two-way street is dropped and every other parallel edge
// is unrolled through synthetic nodes.
func ToSimpleUndirected(g *Graph) *Normalized {
	result := New(false)
	for _, node := range g.Nodes() {
		result.PutNode(node.Clone())
	}

	n := &Normalized{Graph: result, Synthetic: make(map[NodeID]EdgeID)}
	next := g.MaxNodeID() + 1

	kept := make(map[nodePair]*Edge)
	for _, e := range g.Edges() {
		p := pairOf(e.Src, e.Dst, false)
		first, ok := kept[p]
		if !ok {
			c := e.Clone()
			c.Key = 0
			result.AddEdgeWithKey(c)
			kept[p] = e
			continue
		}

		if g.Directed && isReverseTwin(first, e) {
			continue
		}

		mids := n.unroll(g, e, next)
		next += NodeID(len(mids))
	}
	return n
}

type splitEdge struct {
	edge *Edge
	mids []NodeID
}

func findSplitTwin(split []splitEdge, e *Edge) (splitEdge, bool) {
	for _, s := range split {
		if isReverseTwin(s.edge, e) {
			return s, true
		}
	}
	return splitEdge{}, false
}

func reversedIDs(ids []NodeID) []NodeID {
	r := make([]NodeID, len(ids))
	for i, id := range ids {
		r[len(ids)-1-i] = id
	}
	return r
}

// unroll replaces e by pieces chained through new synthetic nodes numbered
// from next. An edge is cut in two; a self-loop is cut in three so that no
// two of its pieces join the same pair of nodes. Pieces share the distance
// and weight equally.
func (n *Normalized) unroll(source *Graph, e *Edge, next NodeID) []NodeID {
	parts := 2
	if e.Src == e.Dst {
		parts = 3
	}

	from, okFrom := NodeLocation(source, e.Src)
	to, okTo := NodeLocation(source, e.Dst)
	var cuts []orb.LineString
	if len(e.Geometry) >= 2 {
		cuts = SplitLineStringInto(e.Geometry, parts)
	}

	mids := make([]NodeID, parts-1)
	for i := range mids {
		mids[i] = next + NodeID(i)
		node := &Node{ID: mids[i]}
		switch {
		case cuts != nil:
			p := cuts[i+1][0]
			node.Lat, node.Lng, node.HasLocation = p[1], p[0], true
		case okFrom && okTo:
			t := float64(i+1) / float64(parts)
			node.Lat = from.Lat + (to.Lat-from.Lat)*t
			node.Lng = from.Lng + (to.Lng-from.Lng)*t
			node.HasLocation = true
		}
		n.Graph.PutNode(node)
	}
	n.unrollThrough(e, mids)
	return mids
}

// unrollThrough adds the pieces of e walking src, mids..., dst. The first
// edge unrolled through a synthetic node is recorded as its origin.
func (n *Normalized) unrollThrough(e *Edge, mids []NodeID) {
	stops := make([]NodeID, 0, len(mids)+2)
	stops = append(stops, e.Src)
	stops = append(stops, mids...)
	stops = append(stops, e.Dst)
	parts := len(stops) - 1

	var cuts []orb.LineString
	if len(e.Geometry) >= 2 {
		cuts = SplitLineStringInto(e.Geometry, parts)
	}

	for i := 0; i < parts; i++ {
		piece := e.Clone()
		piece.Src, piece.Dst = stops[i], stops[i+1]
		piece.Distance = e.Distance / float64(parts)
		piece.Weight = e.Weight / float64(parts)
		if cuts != nil {
			piece.Geometry = cuts[i]
		}
		n.Graph.AddEdge(piece)
	}

	for _, mid := range mids {
		if _, ok := n.Synthetic[mid]; !ok {
			n.Synthetic[mid] = e.ID()
		}
	}
}

// isReverseTwin reports whether b is the same street as a stored in the
// opposite direction.
func isReverseTwin(a, b *Edge) bool {
	if a.Src != b.Dst || a.Dst != b.Src {
		return false
	}

	hasA, hasB := len(a.Geometry) >= 2, len(b.Geometry) >= 2
	switch {
	case hasA && hasB:
		return linesAlmostEqual(a.Geometry, reversedLine(b.Geometry))
	case !hasA && !hasB:
		return math.Abs(a.Distance-b.Distance) <= distanceTolerance
	}
	return false
}

func linesAlmostEqual(a, b orb.LineString) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i][0]-b[i][0]) > pointTolerance || math.Abs(a[i][1]-b[i][1]) > pointTolerance {
			return false
		}
	}
	return true
}
