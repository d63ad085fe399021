package loader

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"coverage-route-server/graph"
)

// LoadOSM reads an OSM XML extract and builds the street network from its
// highway ways: see DecodeOSM and Prepare.
func LoadOSM(ctx context.Context, r io.Reader, profile Profile) (*graph.Graph, error) {
	raw, err := DecodeOSM(ctx, r)
	if err != nil {
		return nil, err
	}
	return Prepare(raw, profile), nil
}

// DecodeOSM builds a directed multigraph from the highway ways of an OSM XML
// extract. Ways are split at every node shared with another way, so nodes
// of the graph are intersections and dead ends. Two-way streets get an edge
// in both directions, "oneway=-1" ways are reversed. Node ids are the OSM
// ids.
func DecodeOSM(ctx context.Context, r io.Reader) (*graph.Graph, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	locations := make(map[osm.NodeID]orb.Point)
	var ways []*osm.Way
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			locations[o.ID] = o.Point()
		case *osm.Way:
			if o.Tags.Find("highway") != "" && len(o.Nodes) > 1 {
				ways = append(ways, o)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan OSM XML: %w", err)
	}

	// Count how often each node is used, way ends count as intersections
	uses := make(map[osm.NodeID]int)
	for _, w := range ways {
		for i, wn := range w.Nodes {
			uses[wn.ID]++
			if i == 0 || i == len(w.Nodes)-1 {
				uses[wn.ID]++
			}
		}
	}

	g := graph.NewDirected()
	missing := 0
	for _, w := range ways {
		segment := []osm.NodeID{w.Nodes[0].ID}
		for _, wn := range w.Nodes[1:] {
			segment = append(segment, wn.ID)
			if uses[wn.ID] > 1 {
				if !addSegment(g, w, segment, locations) {
					missing++
				}
				segment = []osm.NodeID{wn.ID}
			}
		}
	}
	if missing > 0 {
		log.Printf("WARNING: Skipped %d way segments referencing nodes outside the extract", missing)
	}
	return g, nil
}

func addSegment(g *graph.Graph, w *osm.Way, ids []osm.NodeID, locations map[osm.NodeID]orb.Point) bool {
	line := make(orb.LineString, 0, len(ids))
	for _, id := range ids {
		p, ok := locations[id]
		if !ok {
			return false
		}
		line = append(line, p)
	}

	src, dst := graph.NodeID(ids[0]), graph.NodeID(ids[len(ids)-1])
	for _, id := range []graph.NodeID{src, dst} {
		if !g.HasNode(id) {
			p := locations[osm.NodeID(id)]
			g.AddNode(id, p.Lat(), p.Lon())
		}
	}

	oneway := w.Tags.Find("oneway")
	base := graph.Edge{
		Highway:  w.Tags.Find("highway"),
		Distance: geo.Length(line),
		Oneway:   oneway == "yes" || oneway == "true" || oneway == "1" || oneway == "-1",
		Extra:    map[string]string{"osmid": strconv.FormatInt(int64(w.ID), 10)},
	}
	if name := w.Tags.Find("name"); name != "" {
		base.Names = []string{name}
	}
	if maxspeed := w.Tags.Find("maxspeed"); maxspeed != "" {
		base.Extra["maxspeed"] = maxspeed
	}

	forward := base.Clone()
	forward.Src, forward.Dst, forward.Geometry = src, dst, line
	if oneway == "-1" {
		forward.Src, forward.Dst, forward.Geometry = dst, src, reversed(line)
	}
	g.AddEdge(forward)

	if !base.Oneway {
		back := base.Clone()
		back.Src, back.Dst, back.Geometry = dst, src, reversed(line)
		g.AddEdge(back)
	}
	return true
}

func reversed(ls orb.LineString) orb.LineString {
	out := ls.Clone()
	out.Reverse()
	return out
}
