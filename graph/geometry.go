package graph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Coord is a (lat, lng) pair in degrees
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts the coordinate to an orb point (lng, lat)
func (c Coord) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

func coordFromPoint(p orb.Point) Coord {
	return Coord{Lat: p.Lat(), Lng: p.Lon()}
}

// GeodesicDistance returns the haversine distance in meters
func GeodesicDistance(a, b Coord) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point())
}

// LineLength returns the geodesic length of a polyline in meters
func LineLength(ls orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		total += geo.DistanceHaversine(ls[i-1], ls[i])
	}
	return total
}

// CoordsLength returns the geodesic length of a coordinate sequence
func CoordsLength(coords []Coord) float64 {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += GeodesicDistance(coords[i-1], coords[i])
	}
	return total
}

// StraightLine returns the two-point polyline from a to b
func StraightLine(a, b Coord) orb.LineString {
	return orb.LineString{a.Point(), b.Point()}
}

// interpolate returns the point at fraction t of the segment a-b
func interpolate(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// locate finds the segment where the cumulative length reaches target and
// the interpolated point inside it. The returned index i is such that the
// point lies between ls[i-1] and ls[i].
func locate(ls orb.LineString, target float64) (int, orb.Point) {
	walked := 0.0
	for i := 1; i < len(ls); i++ {
		seg := geo.DistanceHaversine(ls[i-1], ls[i])
		if walked+seg >= target {
			if seg == 0 {
				return i, ls[i]
			}
			return i, interpolate(ls[i-1], ls[i], (target-walked)/seg)
		}
		walked += seg
	}
	return len(ls) - 1, ls[len(ls)-1]
}

// PointAlong returns the point at the given fraction of the line's geodesic
// length.
func PointAlong(ls orb.LineString, fraction float64) (orb.Point, bool) {
	if len(ls) == 0 {
		return orb.Point{}, false
	}
	if len(ls) == 1 {
		return ls[0], true
	}
	_, p := locate(ls, LineLength(ls)*fraction)
	return p, true
}

// SplitLineString cuts a polyline into two halves of equal geodesic length.
// The split point is found by scanning cumulative segment length and is
// shared by both halves.
func SplitLineString(ls orb.LineString) (orb.LineString, orb.LineString) {
	pieces := SplitLineStringInto(ls, 2)
	return pieces[0], pieces[1]
}

// SplitLineStringInto cuts a polyline into parts pieces of equal geodesic
// length. Consecutive pieces share their cut point.
func SplitLineStringInto(ls orb.LineString, parts int) []orb.LineString {
	if parts < 1 {
		parts = 1
	}
	pieces := make([]orb.LineString, 0, parts)
	if len(ls) < 2 {
		for i := 0; i < parts; i++ {
			pieces = append(pieces, ls.Clone())
		}
		return pieces
	}

	step := LineLength(ls) / float64(parts)
	rest := ls
	for k := 1; k < parts; k++ {
		idx, cut := locate(rest, step)

		head := make(orb.LineString, 0, idx+1)
		head = append(head, rest[:idx]...)
		head = append(head, cut)
		pieces = append(pieces, dedupeEnds(head))

		tail := make(orb.LineString, 0, len(rest)-idx+1)
		tail = append(tail, cut)
		rest = append(tail, rest[idx:]...)
	}
	return append(pieces, dedupeEnds(rest))
}

// dedupeEnds drops a repeated point created when the split lands exactly on
// an existing vertex.
func dedupeEnds(ls orb.LineString) orb.LineString {
	if len(ls) > 2 && ls[len(ls)-1] == ls[len(ls)-2] {
		ls = ls[:len(ls)-1]
	}
	if len(ls) > 2 && ls[0] == ls[1] {
		ls = ls[1:]
	}
	return ls
}

func reversedLine(ls orb.LineString) orb.LineString {
	c := ls.Clone()
	c.Reverse()
	return c
}
