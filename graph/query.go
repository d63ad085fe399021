package graph

import (
	"sort"
)

// NodeLocation returns the coordinate of a node. The second value is false
// when the node is missing or has no location.
func NodeLocation(g *Graph, id NodeID) (Coord, bool) {
	n, ok := g.Node(id)
	if !ok || !n.HasLocation {
		return Coord{}, false
	}
	return Coord{Lat: n.Lat, Lng: n.Lng}, true
}

func pickEdge(g *Graph, src, dst NodeID, key *int) (*Edge, bool) {
	if key != nil {
		return g.Edge(EdgeID{Src: src, Dst: dst, Key: *key})
	}
	edges := g.EdgesBetween(src, dst)
	if len(edges) == 0 {
		return nil, false
	}
	return edges[0], true
}

// EdgeCoords returns the coordinates of an edge from src to dst. Stored
// geometry is preferred over the straight line between the endpoints. When
// only the reverse edge exists its coordinates are reversed, and undirected
// edges are oriented so they start at src.
func EdgeCoords(g *Graph, src, dst NodeID, key *int) []Coord {
	reversed := false
	if !g.HasDirectedEdge(src, dst) {
		reversed = true
		src, dst = dst, src
		if !g.HasDirectedEdge(src, dst) {
			return nil
		}
	}

	var coords []Coord
	if e, ok := pickEdge(g, src, dst, key); ok && len(e.Geometry) >= 2 {
		coords = make([]Coord, 0, len(e.Geometry))
		for _, p := range e.Geometry {
			coords = append(coords, coordFromPoint(p))
		}
	}

	if len(coords) == 0 {
		from, okFrom := NodeLocation(g, src)
		to, okTo := NodeLocation(g, dst)
		if !okFrom || !okTo {
			return nil
		}
		coords = []Coord{from, to}
	}

	if !g.Directed {
		loc, ok := NodeLocation(g, src)
		reversed = ok && loc != coords[0]
	}

	if reversed {
		for i, j := 0, len(coords)-1; i < j; i, j = i+1, j-1 {
			coords[i], coords[j] = coords[j], coords[i]
		}
	}
	return coords
}

// EdgeMidpoint returns the point halfway along the edge geometry, or the
// mean of the endpoint coordinates for straight edges.
func EdgeMidpoint(g *Graph, src, dst NodeID, key *int) (Coord, bool) {
	if e, ok := pickEdge(g, src, dst, key); ok && len(e.Geometry) >= 2 {
		if p, ok := PointAlong(e.Geometry, 0.5); ok {
			return coordFromPoint(p), true
		}
	}

	from, okFrom := NodeLocation(g, src)
	to, okTo := NodeLocation(g, dst)
	if !okFrom || !okTo {
		return Coord{}, false
	}
	return Coord{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}, true
}

// FindEdges lists the parallel edges from src to dst, followed by the ones
// from dst to src when bidirectional is set.
func FindEdges(g *Graph, src, dst NodeID, bidirectional bool) []EdgeID {
	var result []EdgeID
	for _, e := range g.EdgesBetween(src, dst) {
		result = append(result, e.ID())
	}
	if !g.Directed || !bidirectional || src == dst {
		return result
	}
	for _, e := range g.EdgesBetween(dst, src) {
		result = append(result, e.ID())
	}
	return result
}

// ResolveEdgeRef expands a reference into concrete edge ids, matching either
// direction. A nil key selects all parallel edges.
func ResolveEdgeRef(g *Graph, ref EdgeRef) []EdgeID {
	if ref.Key == nil {
		return FindEdges(g, ref.Src, ref.Dst, true)
	}

	var result []EdgeID
	for _, id := range []EdgeID{
		{Src: ref.Src, Dst: ref.Dst, Key: *ref.Key},
		{Src: ref.Dst, Dst: ref.Src, Key: *ref.Key},
	} {
		if e, ok := g.Edge(id); ok {
			found := e.ID()
			if len(result) == 0 || result[0] != found {
				result = append(result, found)
			}
		}
	}
	return result
}

func FindOddNodes(g *Graph) []NodeID {
	var result []NodeID
	for _, id := range g.nodeOrder {
		if g.Degree(id)%2 == 1 {
			result = append(result, id)
		}
	}
	return result
}

func FindEvenNodes(g *Graph) []NodeID {
	var result []NodeID
	for _, id := range g.nodeOrder {
		if g.Degree(id)%2 == 0 {
			result = append(result, id)
		}
	}
	return result
}

// FindStreets returns the distinct street names of the graph, sorted
func FindStreets(g *Graph) []string {
	seen := make(map[string]bool)
	for _, e := range g.Edges() {
		for _, name := range e.Names {
			seen[name] = true
		}
	}

	streets := make([]string, 0, len(seen))
	for name := range seen {
		streets = append(streets, name)
	}
	sort.Strings(streets)
	return streets
}

// FindCenter averages the location of all nodes that have one
func FindCenter(g *Graph) (Coord, bool) {
	var lat, lng float64
	count := 0
	for _, n := range g.Nodes() {
		if !n.HasLocation {
			continue
		}
		lat += n.Lat
		lng += n.Lng
		count++
	}
	if count == 0 {
		return Coord{}, false
	}
	return Coord{Lat: lat / float64(count), Lng: lng / float64(count)}, true
}

// FindNode looks for a node in search at exactly the same position as n
func FindNode(n *Node, search *Graph) (NodeID, bool) {
	if !n.HasLocation {
		return 0, false
	}
	for _, other := range search.Nodes() {
		if other.HasLocation && other.Lat == n.Lat && other.Lng == n.Lng {
			return other.ID, true
		}
	}
	return 0, false
}

// FindMatchingEdge looks for an edge in search that describes the same
// street segment as e from the graph from. Edges with geometry match on the
// polyline (either direction), the others on their endpoint positions.
func FindMatchingEdge(e *Edge, from, search *Graph) (EdgeID, bool) {
	if len(e.Geometry) > 0 {
		rev := reversedLine(e.Geometry)
		for _, other := range search.Edges() {
			if len(other.Geometry) == 0 {
				continue
			}
			if e.Geometry.Equal(other.Geometry) || rev.Equal(other.Geometry) {
				return other.ID(), true
			}
		}
		return EdgeID{}, false
	}

	a, okA := NodeLocation(from, e.Src)
	b, okB := NodeLocation(from, e.Dst)
	if !okA || !okB {
		return EdgeID{}, false
	}

	for _, other := range search.Edges() {
		if len(other.Geometry) > 0 {
			continue
		}
		c, okC := NodeLocation(search, other.Src)
		d, okD := NodeLocation(search, other.Dst)
		if !okC || !okD {
			continue
		}
		if (a == c && b == d) || (a == d && b == c) {
			return other.ID(), true
		}
	}
	return EdgeID{}, false
}

// AnnotateWithDistances fills the distance of every edge that has none from
// the geodesic length of its coordinates.
func AnnotateWithDistances(g *Graph) int {
	filled := 0
	for _, e := range g.Edges() {
		if e.Distance > 0 {
			continue
		}
		key := e.Key
		coords := EdgeCoords(g, e.Src, e.Dst, &key)
		if len(coords) < 2 {
			continue
		}
		e.Distance = CoordsLength(coords)
		filled++
	}
	return filled
}

// TotalLength sums the distance of the simplified undirected graph. Removed
// edges only count when includeRemoved is set.
func TotalLength(g *Graph, includeRemoved bool) float64 {
	simple := ToSimpleUndirected(g).Graph
	total := 0.0
	for _, e := range simple.Edges() {
		if e.IsRemoved && !includeRemoved {
			continue
		}
		total += e.Distance
	}
	return total
}

// FindPartitionsFromDist groups the edges of the simplified undirected graph
// into breadth-first partitions whose cumulative distance stays below
// maxDist.
func FindPartitionsFromDist(g *Graph, maxDist float64) [][]EdgeID {
	simple := ToSimpleUndirected(g).Graph
	visited := make(map[NodeID]bool)
	taken := make(map[EdgeID]bool)
	var partitions [][]EdgeID

	for _, start := range simple.NodeIDs() {
		if visited[start] {
			continue
		}

		var partition []EdgeID
		walked := 0.0
		queue := []NodeID{start}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			if visited[node] {
				continue
			}
			visited[node] = true

			for _, e := range simple.Incident(node) {
				if taken[e.ID()] || walked+e.Distance > maxDist {
					continue
				}
				taken[e.ID()] = true
				partition = append(partition, e.ID())
				queue = append(queue, e.Other(node))
				walked += e.Distance
			}
		}
		partitions = append(partitions, partition)
	}
	return partitions
}
