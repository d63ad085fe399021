package graph

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func intPtr(v int) *int { return &v }

func TestNodeLocation(t *testing.T) {
	g := NewDirected()
	g.AddNode(1, 45.5, -73.6)
	g.PutNode(&Node{ID: 2})

	tests := []struct {
		name   string
		id     NodeID
		want   Coord
		wantOK bool
	}{
		{"located", 1, Coord{Lat: 45.5, Lng: -73.6}, true},
		{"no location", 2, Coord{}, false},
		{"missing", 3, Coord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NodeLocation(g, tt.id)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NodeLocation(%d) = %v, %v, want %v, %v", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEdgeCoords(t *testing.T) {
	line := orb.LineString{{0, 0}, {0.001, 0.0005}, {0.002, 0}}

	directed := NewDirected()
	directed.AddNode(1, 0, 0)
	directed.AddNode(2, 0, 0.002)
	directed.AddNode(3, 0.001, 0.001)
	directed.AddEdge(&Edge{Src: 1, Dst: 2, Geometry: line})
	directed.AddEdge(&Edge{Src: 2, Dst: 3})

	undirected := NewUndirected()
	undirected.AddNode(1, 0, 0)
	undirected.AddNode(2, 0, 0.002)
	undirected.AddEdge(&Edge{Src: 1, Dst: 2, Geometry: line})

	tests := []struct {
		name     string
		g        *Graph
		src, dst NodeID
		want     []Coord
	}{
		{"geometry", directed, 1, 2, []Coord{{0, 0}, {0.0005, 0.001}, {0, 0.002}}},
		{"reverse only", directed, 2, 1, []Coord{{0, 0.002}, {0.0005, 0.001}, {0, 0}}},
		{"straight line", directed, 2, 3, []Coord{{0, 0.002}, {0.001, 0.001}}},
		{"straight line reversed", directed, 3, 2, []Coord{{0.001, 0.001}, {0, 0.002}}},
		{"undirected reoriented", undirected, 2, 1, []Coord{{0, 0.002}, {0.0005, 0.001}, {0, 0}}},
		{"missing", directed, 1, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EdgeCoords(tt.g, tt.src, tt.dst, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EdgeCoords(%d, %d) = %v, want %v", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestEdgeMidpoint(t *testing.T) {
	g := NewDirected()
	g.AddNode(1, 0, 0)
	g.AddNode(2, 0, 0.003)
	g.AddNode(3, 0.002, 0.003)
	g.PutNode(&Node{ID: 4})
	g.AddEdge(&Edge{Src: 1, Dst: 2, Geometry: orb.LineString{{0, 0}, {0.001, 0}, {0.003, 0}}})
	g.AddEdge(&Edge{Src: 2, Dst: 3})
	g.AddEdge(&Edge{Src: 3, Dst: 4})

	mid, ok := EdgeMidpoint(g, 1, 2, intPtr(0))
	if !ok || math.Abs(mid.Lng-0.0015) > 1e-9 || mid.Lat != 0 {
		t.Errorf("geometry midpoint = %v, %v, want lng 0.0015", mid, ok)
	}

	mid, ok = EdgeMidpoint(g, 2, 3, nil)
	if !ok || mid != (Coord{Lat: 0.001, Lng: 0.003}) {
		t.Errorf("straight midpoint = %v, %v, want {0.001 0.003}", mid, ok)
	}

	if _, ok := EdgeMidpoint(g, 3, 4, nil); ok {
		t.Errorf("midpoint with incomplete coordinates should not resolve")
	}
}

func TestFindEdgesAndResolveEdgeRef(t *testing.T) {
	g := NewDirected()
	g.AddEdge(&Edge{Src: 5, Dst: 9})
	g.AddEdge(&Edge{Src: 5, Dst: 9})
	g.AddEdge(&Edge{Src: 9, Dst: 5})

	if got := FindEdges(g, 5, 9, false); len(got) != 2 {
		t.Errorf("FindEdges one direction = %v, want 2 edges", got)
	}
	if got := FindEdges(g, 9, 5, true); len(got) != 3 {
		t.Errorf("FindEdges bidirectional = %v, want 3 edges", got)
	}

	got := ResolveEdgeRef(g, EdgeRef{Src: 9, Dst: 5, Key: intPtr(1)})
	want := []EdgeID{{Src: 5, Dst: 9, Key: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveEdgeRef key 1 = %v, want %v", got, want)
	}

	got = ResolveEdgeRef(g, EdgeRef{Src: 5, Dst: 9, Key: intPtr(0)})
	want = []EdgeID{{Src: 5, Dst: 9, Key: 0}, {Src: 9, Dst: 5, Key: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveEdgeRef key 0 = %v, want %v", got, want)
	}
}

func TestFindStreets(t *testing.T) {
	g := NewDirected()
	g.AddEdge(&Edge{Src: 1, Dst: 2, Names: []string{"Rue Ontario", "Rue Sherbrooke"}})
	g.AddEdge(&Edge{Src: 2, Dst: 3, Names: []string{"Rue Ontario"}})
	g.AddEdge(&Edge{Src: 3, Dst: 4})

	got := FindStreets(g)
	want := []string{"Rue Ontario", "Rue Sherbrooke"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindStreets() = %v, want %v", got, want)
	}
}

func TestFindMatchingEdge(t *testing.T) {
	line := orb.LineString{{0, 0}, {0.001, 0}}

	current := NewDirected()
	current.AddNode(1, 0, 0)
	current.AddNode(2, 0, 0.001)
	current.AddNode(3, 0.001, 0.001)
	current.AddEdge(&Edge{Src: 1, Dst: 2, Geometry: line})
	current.AddEdge(&Edge{Src: 2, Dst: 3})

	other := NewDirected()
	other.AddNode(10, 0, 0.001)
	other.AddNode(11, 0, 0)
	other.AddNode(12, 0.001, 0.001)
	reversed := line.Clone()
	reversed.Reverse()
	other.AddEdge(&Edge{Src: 10, Dst: 11, Geometry: reversed})
	other.AddEdge(&Edge{Src: 12, Dst: 10})
	other.AddEdge(&Edge{Src: 11, Dst: 12})

	tests := []struct {
		name   string
		edge   EdgeID
		want   EdgeID
		wantOK bool
	}{
		{"reversed geometry", EdgeID{Src: 10, Dst: 11}, EdgeID{Src: 1, Dst: 2}, true},
		{"reversed endpoints", EdgeID{Src: 12, Dst: 10}, EdgeID{Src: 2, Dst: 3}, true},
		{"new edge", EdgeID{Src: 11, Dst: 12}, EdgeID{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := other.Edge(tt.edge)
			got, ok := FindMatchingEdge(e, other, current)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FindMatchingEdge() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	n, _ := other.Node(10)
	if id, ok := FindNode(n, current); !ok || id != 2 {
		t.Errorf("FindNode() = %d, %v, want 2, true", id, ok)
	}
}

func TestAnnotateWithDistances(t *testing.T) {
	g := NewDirected()
	g.AddNode(1, 0, 0)
	g.AddNode(2, 0, 0.001)
	g.AddEdge(&Edge{Src: 1, Dst: 2})
	g.AddEdge(&Edge{Src: 2, Dst: 1, Distance: 42})

	if filled := AnnotateWithDistances(g); filled != 1 {
		t.Errorf("filled = %d, want 1", filled)
	}

	e, _ := g.Edge(EdgeID{Src: 1, Dst: 2})
	want := GeodesicDistance(Coord{0, 0}, Coord{0, 0.001})
	if math.Abs(e.Distance-want) > 1e-9 {
		t.Errorf("distance = %f, want %f", e.Distance, want)
	}
	rev, _ := g.Edge(EdgeID{Src: 2, Dst: 1})
	if rev.Distance != 42 {
		t.Errorf("existing distance overwritten: %f", rev.Distance)
	}
}

func TestFindPartitionsFromDist(t *testing.T) {
	g := squareGraph()

	partitions := FindPartitionsFromDist(g, 250)
	total := 0
	for _, p := range partitions {
		total += len(p)
	}
	if total != 4 {
		t.Errorf("partitions cover %d edges, want 4", total)
	}
	if len(partitions[0]) != 2 {
		t.Errorf("first partition has %d edges, want 2", len(partitions[0]))
	}
}
