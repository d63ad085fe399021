package graph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToGeoJSON exports the graph for a renderer: one LineString feature per
// edge followed by one Point feature per located node.
func ToGeoJSON(g *Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, e := range g.Edges() {
		key := e.Key
		coords := EdgeCoords(g, e.Src, e.Dst, &key)
		if len(coords) < 2 {
			continue
		}

		line := make(orb.LineString, 0, len(coords))
		for _, c := range coords {
			line = append(line, c.Point())
		}

		f := geojson.NewFeature(line)
		f.Properties["src"] = int64(e.Src)
		f.Properties["dst"] = int64(e.Dst)
		f.Properties["key"] = e.Key
		f.Properties["highway"] = e.Highway
		f.Properties["name"] = e.Names
		f.Properties["distance"] = e.Distance
		f.Properties["is_removed"] = e.IsRemoved
		f.Properties["is_highlighted"] = e.IsHighlighted
		if e.SelfCreated {
			f.Properties["self_created"] = true
		}
		fc.Append(f)
	}

	for _, n := range g.Nodes() {
		if !n.HasLocation {
			continue
		}
		f := geojson.NewFeature(orb.Point{n.Lng, n.Lat})
		f.Properties["id"] = int64(n.ID)
		f.Properties["is_removed"] = n.IsRemoved
		f.Properties["is_highlighted"] = n.IsHighlighted
		fc.Append(f)
	}
	return fc
}
