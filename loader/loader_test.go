package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"coverage-route-server/graph"
)

func TestHighwayTag(t *testing.T) {
	tests := []struct {
		input        string
		want         string
		wantMultiple bool
	}{
		{`"residential"`, "residential", false},
		{`["primary", "residential"]`, "primary", true},
		{`null`, "", false},
		{`""`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var h HighwayTag
			if err := json.Unmarshal([]byte(tt.input), &h); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got := h.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
			if h.IsMultiple() != tt.wantMultiple {
				t.Errorf("IsMultiple() = %t, want %t", h.IsMultiple(), tt.wantMultiple)
			}
		})
	}
}

const nodeLinkFixture = `{
  "directed": true,
  "multigraph": true,
  "graph": {"crs": "epsg:4326"},
  "nodes": [
    {"id": 100, "x": 6.5600, "y": 53.2100, "street_count": 2},
    {"id": 200, "x": 6.5610, "y": 53.2100},
    {"id": "300", "x": 6.5610, "y": 53.2110}
  ],
  "links": [
    {"source": 100, "target": 200, "key": 0, "highway": ["primary", "residential"], "length": 67.0, "osmid": [1, 2]},
    {"source": 200, "target": 300, "key": 0, "highway": "residential", "name": ["Oak Lane", "Elm Road"],
     "geometry": "LINESTRING (6.561 53.21, 6.5612 53.2105, 6.561 53.211)"},
    {"source": 300, "target": 100, "key": 0, "oneway": true, "length": 130.5}
  ]
}`

func TestLoadNodeLink(t *testing.T) {
	g, err := LoadNodeLink(strings.NewReader(nodeLinkFixture), DefaultProfile())
	if err != nil {
		t.Fatalf("LoadNodeLink() error = %v", err)
	}

	if got, want := g.NodeIDs(), []graph.NodeID{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("node ids = %v, want %v", got, want)
	}

	primary, ok := g.Edge(graph.EdgeID{Src: 0, Dst: 1})
	if !ok {
		t.Fatalf("edge 0-1 missing")
	}
	if primary.Highway != "primary" || !primary.IsRemoved {
		t.Errorf("edge 0-1 highway = %q, removed = %t, want a removed primary road", primary.Highway, primary.IsRemoved)
	}
	if primary.Extra["osmid"] != "1,2" || primary.Extra["highway_all"] != "primary,residential" {
		t.Errorf("edge 0-1 extra = %v", primary.Extra)
	}

	street, _ := g.Edge(graph.EdgeID{Src: 1, Dst: 2})
	if !reflect.DeepEqual(street.Names, []string{"Oak Lane", "Elm Road"}) {
		t.Errorf("names = %v", street.Names)
	}
	if len(street.Geometry) != 3 {
		t.Errorf("got %d geometry points, want 3", len(street.Geometry))
	}
	if street.Distance <= 111 {
		t.Errorf("distance = %f, want the length of the curved geometry", street.Distance)
	}

	back, _ := g.Edge(graph.EdgeID{Src: 2, Dst: 0})
	if back.IsRemoved || !back.Oneway || back.Distance != 130.5 {
		t.Errorf("edge 2-0 = %+v", back)
	}
}

func TestDecodeNodeLinkEnvelope(t *testing.T) {
	doc := `{"metadata": {"title": "test"}, "graph": ` + nodeLinkFixture + `}`
	g, err := DecodeNodeLink(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeNodeLink() error = %v", err)
	}
	if g.NumNodes() != 3 || g.NumEdges() != 3 || !g.HasNode(300) {
		t.Errorf("got %d nodes and %d edges, want the wrapped graph", g.NumNodes(), g.NumEdges())
	}
}

func TestDecodeNodeLinkInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":    `{"nodes": [`,
		"bad node id": `{"nodes": [{"id": true}], "links": []}`,
		"bad link id": `{"nodes": [{"id": 1}], "links": [{"source": "a", "target": 1}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeNodeLink(strings.NewReader(doc)); err == nil {
				t.Errorf("DecodeNodeLink(%s) succeeded, want an error", doc)
			}
		})
	}
}

func TestWriteNodeLinkRoundTrip(t *testing.T) {
	g := graph.NewDirected()
	g.AddNode(0, 53.21, 6.56)
	g.AddNode(1, 53.22, 6.57)
	g.PutNode(&graph.Node{ID: 2, IsRemoved: true})
	g.AddEdge(&graph.Edge{Src: 0, Dst: 1, Highway: "footway", Distance: 50, SelfCreated: true, Names: []string{"Path"}})
	g.AddEdge(&graph.Edge{Src: 0, Dst: 1, Highway: "residential", Distance: 70, IsHighlighted: true})
	g.AddEdge(&graph.Edge{Src: 1, Dst: 2, IsRemoved: true, Oneway: true})

	var buf bytes.Buffer
	if err := WriteNodeLink(&buf, g); err != nil {
		t.Fatalf("WriteNodeLink() error = %v", err)
	}
	got, err := DecodeNodeLink(&buf)
	if err != nil {
		t.Fatalf("DecodeNodeLink() error = %v", err)
	}
	if !graph.Equal(got, g) {
		t.Errorf("round trip changed the graph:\n got %+v\nwant %+v", got.Snapshot(), g.Snapshot())
	}
}

const osmFixture = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="53.2100" lon="6.5600"/>
  <node id="2" lat="53.2100" lon="6.5610"/>
  <node id="3" lat="53.2110" lon="6.5610"/>
  <node id="4" lat="53.2120" lon="6.5610"/>
  <node id="5" lat="53.2100" lon="6.5620"/>
  <node id="6" lat="53.2130" lon="6.5630"/>
  <way id="10">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Main Street"/>
  </way>
  <way id="11">
    <nd ref="3"/><nd ref="4"/>
    <tag k="highway" v="primary"/>
    <tag k="oneway" v="yes"/>
  </way>
  <way id="12">
    <nd ref="2"/><nd ref="5"/>
    <tag k="highway" v="footway"/>
  </way>
  <way id="13">
    <nd ref="4"/><nd ref="6"/>
    <tag k="building" v="yes"/>
  </way>
</osm>`

func TestLoadOSM(t *testing.T) {
	g, err := LoadOSM(context.Background(), strings.NewReader(osmFixture), DefaultProfile())
	if err != nil {
		t.Fatalf("LoadOSM() error = %v", err)
	}

	if g.NumNodes() != 5 || g.NumEdges() != 7 {
		t.Fatalf("got %d nodes and %d edges, want 5 and 7", g.NumNodes(), g.NumEdges())
	}

	street, ok := g.Edge(graph.EdgeID{Src: 0, Dst: 1})
	if !ok || !reflect.DeepEqual(street.Names, []string{"Main Street"}) || street.Extra["osmid"] != "10" {
		t.Errorf("edge 0-1 = %+v, want a segment of Main Street", street)
	}
	if street.Distance < 60 || street.Distance > 75 {
		t.Errorf("edge 0-1 distance = %f, want about 67m", street.Distance)
	}

	primary, ok := g.Edge(graph.EdgeID{Src: 2, Dst: 3})
	if !ok || !primary.IsRemoved || !primary.Oneway {
		t.Errorf("edge 2-3 = %+v, want a removed oneway primary road", primary)
	}
	if g.HasEdge(3, 2) {
		t.Errorf("oneway road should not get a reverse edge")
	}
}

func TestLoadPolygonAndClip(t *testing.T) {
	csv := "lat, lon\n53.2095, 6.5595\n53.2095, 6.5615\n53.2115, 6.5615\n53.2115, 6.5595\n"
	polygon, err := LoadPolygon(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadPolygon() error = %v", err)
	}
	if len(polygon[0]) != 5 {
		t.Errorf("ring has %d points, want 5 (closed)", len(polygon[0]))
	}

	raw, err := DecodeOSM(context.Background(), strings.NewReader(osmFixture))
	if err != nil {
		t.Fatalf("DecodeOSM() error = %v", err)
	}
	clipped := Clip(raw, polygon)
	if got, want := clipped.NodeIDs(), []graph.NodeID{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("clipped nodes = %v, want %v", got, want)
	}
	if clipped.NumEdges() != 4 {
		t.Errorf("got %d edges inside, want 4", clipped.NumEdges())
	}

	if _, err := LoadPolygon(strings.NewReader("1, 2\n3, 4\n")); !errors.Is(err, ErrEmptyPolygon) {
		t.Errorf("LoadPolygon() error = %v, want %v", err, ErrEmptyPolygon)
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("non_runnable:\n  - track\n  - motorway\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if !reflect.DeepEqual(profile.NonRunnable, []string{"track", "motorway"}) {
		t.Errorf("non runnable = %v", profile.NonRunnable)
	}
	if profile.DefaultHighway != "footway" {
		t.Errorf("default highway = %q, want footway", profile.DefaultHighway)
	}
	if profile.Runnable("track") || !profile.Runnable("primary") {
		t.Errorf("Runnable() does not follow the loaded list")
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("LoadProfile() of a missing file succeeded")
	}
}
