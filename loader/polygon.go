package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"coverage-route-server/graph"
)

var ErrEmptyPolygon = errors.New("polygon needs at least three points")

// LoadPolygon reads a neighbourhood outline as "lat, lon" rows. A header row
// is skipped.
func LoadPolygon(r io.Reader) (orb.Polygon, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var ring orb.Ring
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read polygon: %w", err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("polygon line %d: expected lat, lon", line)
		}

		lat, errLat := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if errLat != nil || errLon != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("polygon line %d: invalid coordinate %v", line, record)
		}
		ring = append(ring, orb.Point{lon, lat})
	}

	if len(ring) < 3 {
		return nil, ErrEmptyPolygon
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}, nil
}

// Clip keeps the nodes located inside the polygon and the edges between
// them. Nodes without a location are dropped.
func Clip(g *graph.Graph, polygon orb.Polygon) *graph.Graph {
	var inside []graph.NodeID
	for _, n := range g.Nodes() {
		if !n.HasLocation {
			continue
		}
		if planar.PolygonContains(polygon, orb.Point{n.Lng, n.Lat}) {
			inside = append(inside, n.ID)
		}
	}
	return graph.Subgraph(g, inside)
}
