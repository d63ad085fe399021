package routing

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"coverage-route-server/graph"
)

// CircuitToGeoJSON exports the circuit as one LineString per step, oriented
// in walking direction. Coordinates are looked up in g, normally the simple
// graph the circuit was built on. Steps without coordinates are skipped.
func CircuitToGeoJSON(g *graph.Graph, circuit Circuit) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for idx, s := range circuit {
		coords := graph.EdgeCoords(g, s.Src, s.Dst, nil)
		if len(coords) < 2 {
			continue
		}

		line := make(orb.LineString, 0, len(coords))
		for _, c := range coords {
			line = append(line, c.Point())
		}

		f := geojson.NewFeature(line)
		f.Properties["step"] = idx
		f.Properties["src"] = int64(s.Src)
		f.Properties["dst"] = int64(s.Dst)
		f.Properties["distance"] = s.Edge.Distance
		f.Properties["highway"] = s.Edge.Highway
		f.Properties["name"] = s.Edge.Names
		f.Properties["n_visits"] = s.Edge.NVisits
		f.Properties["sequence"] = s.Edge.Sequence
		fc.Append(f)
	}
	return fc
}
