package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"

	"coverage-route-server/graph"
)

// nodeLinkGraph is the node-link layout osmnx and networkx export. Exports
// wrapped in a {"metadata", "graph"} envelope are accepted as well.
type nodeLinkGraph struct {
	Directed   *bool           `json:"directed"`
	Multigraph bool            `json:"multigraph"`
	Graph      json.RawMessage `json:"graph,omitempty"`
	Nodes      []jsonNode      `json:"nodes"`
	Links      []jsonLink      `json:"links"`
	Edges      []jsonLink      `json:"edges,omitempty"` // key used by newer networkx releases
}

type jsonNode struct {
	ID            interface{} `json:"id"` // Can be int64 or string
	X             *float64    `json:"x,omitempty"`
	Y             *float64    `json:"y,omitempty"`
	Lon           *float64    `json:"lon,omitempty"`
	Lat           *float64    `json:"lat,omitempty"`
	StreetCount   int         `json:"street_count,omitempty"`
	IsRemoved     bool        `json:"is_removed,omitempty"`
	IsHighlighted bool        `json:"is_highlighted,omitempty"`
}

type jsonLink struct {
	Source        interface{} `json:"source"` // Can be int64 or string
	Target        interface{} `json:"target"` // Can be int64 or string
	Key           *int        `json:"key,omitempty"`
	OSMID         interface{} `json:"osmid,omitempty"` // Can be int64, array, or string
	Highway       HighwayTag  `json:"highway"`
	Name          StringList  `json:"name,omitempty"`
	Oneway        interface{} `json:"oneway,omitempty"` // Can be bool, string or array
	Maxspeed      interface{} `json:"maxspeed,omitempty"`
	Lanes         interface{} `json:"lanes,omitempty"`
	Length        float64     `json:"length,omitempty"`
	Distance      float64     `json:"distance,omitempty"`
	DistanceM     float64     `json:"distance_m,omitempty"`
	Geometry      string      `json:"geometry,omitempty"` // WKT LINESTRING
	IsRemoved     bool        `json:"is_removed,omitempty"`
	IsHighlighted bool        `json:"is_highlighted,omitempty"`
	SelfCreated   bool        `json:"self_created,omitempty"`
}

func convertID(id interface{}) (graph.NodeID, error) {
	switch v := id.(type) {
	case float64:
		return graph.NodeID(v), nil
	case int64:
		return graph.NodeID(v), nil
	case int:
		return graph.NodeID(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return graph.NodeID(n), err
	case json.Number:
		n, err := v.Int64()
		return graph.NodeID(n), err
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", id)
	}
}

func convertBool(val interface{}) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "true", "yes", "1", "-1":
			return true
		}
		return false
	case []interface{}:
		return len(v) > 0 && convertBool(v[0])
	default:
		return false
	}
}

// LoadNodeLink reads an osmnx node-link JSON export and prepares it for
// editing: see Prepare.
func LoadNodeLink(r io.Reader, profile Profile) (*graph.Graph, error) {
	raw, err := DecodeNodeLink(r)
	if err != nil {
		return nil, err
	}
	return Prepare(raw, profile), nil
}

// DecodeNodeLink reads a node-link JSON document as is, keeping ids and
// flags.
func DecodeNodeLink(r io.Reader) (*graph.Graph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc nodeLinkGraph
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse node-link JSON: %w", err)
	}
	if len(doc.Nodes) == 0 && len(doc.Graph) > 0 {
		var inner nodeLinkGraph
		if err := json.Unmarshal(doc.Graph, &inner); err == nil && len(inner.Nodes) > 0 {
			doc = inner
		}
	}

	directed := true
	if doc.Directed != nil {
		directed = *doc.Directed
	}
	g := graph.New(directed)

	for _, jn := range doc.Nodes {
		id, err := convertID(jn.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to convert node ID (%v): %w", jn.ID, err)
		}

		node := &graph.Node{ID: id, IsRemoved: jn.IsRemoved, IsHighlighted: jn.IsHighlighted}
		switch {
		case jn.X != nil && jn.Y != nil:
			node.Lat, node.Lng, node.HasLocation = *jn.Y, *jn.X, true
		case jn.Lat != nil && jn.Lon != nil:
			node.Lat, node.Lng, node.HasLocation = *jn.Lat, *jn.Lon, true
		}
		if jn.StreetCount > 0 {
			node.Extra = map[string]string{"street_count": strconv.Itoa(jn.StreetCount)}
		}
		g.PutNode(node)
	}

	links := doc.Links
	if len(links) == 0 {
		links = doc.Edges
	}
	for _, jl := range links {
		src, err := convertID(jl.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to convert source ID (%v): %w", jl.Source, err)
		}
		dst, err := convertID(jl.Target)
		if err != nil {
			return nil, fmt.Errorf("failed to convert target ID (%v): %w", jl.Target, err)
		}

		e := &graph.Edge{
			Src:           src,
			Dst:           dst,
			Highway:       jl.Highway.Normalize(),
			Names:         []string(jl.Name),
			Distance:      firstPositive(jl.Distance, jl.Length, jl.DistanceM),
			Oneway:        convertBool(jl.Oneway),
			IsRemoved:     jl.IsRemoved,
			IsHighlighted: jl.IsHighlighted,
			SelfCreated:   jl.SelfCreated,
			Extra:         linkExtra(jl),
		}
		if jl.Geometry != "" {
			ls, err := wkt.UnmarshalLineString(jl.Geometry)
			if err != nil {
				log.Printf("WARNING: Edge %d -> %d has unreadable geometry: %v", src, dst, err)
			} else {
				e.Geometry = ls
			}
		}

		if jl.Key != nil {
			e.Key = *jl.Key
			if _, taken := g.Edge(e.ID()); !taken {
				g.AddEdgeWithKey(e)
				continue
			}
		}
		g.AddEdge(e)
	}
	return g, nil
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func linkExtra(jl jsonLink) map[string]string {
	extra := make(map[string]string)
	for key, val := range map[string]interface{}{
		"osmid":    jl.OSMID,
		"maxspeed": jl.Maxspeed,
		"lanes":    jl.Lanes,
	} {
		if s := convertToString(val); s != "" {
			extra[key] = s
		}
	}
	if jl.Highway.IsMultiple() {
		extra["highway_all"] = strings.Join(jl.Highway.Values(), ",")
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

// WriteNodeLink writes the graph in the node-link layout DecodeNodeLink
// reads, geometries as WKT.
func WriteNodeLink(w io.Writer, g *graph.Graph) error {
	directed := g.Directed
	doc := nodeLinkGraph{
		Directed:   &directed,
		Multigraph: true,
		Graph:      json.RawMessage("{}"),
		Nodes:      make([]jsonNode, 0, g.NumNodes()),
		Links:      make([]jsonLink, 0, g.NumEdges()),
	}

	for _, n := range g.Nodes() {
		jn := jsonNode{ID: int64(n.ID), IsRemoved: n.IsRemoved, IsHighlighted: n.IsHighlighted}
		if n.HasLocation {
			x, y := n.Lng, n.Lat
			jn.X, jn.Y = &x, &y
		}
		doc.Nodes = append(doc.Nodes, jn)
	}
	for _, e := range g.Edges() {
		key := e.Key
		jl := jsonLink{
			Source:        int64(e.Src),
			Target:        int64(e.Dst),
			Key:           &key,
			Highway:       Single(e.Highway),
			Name:          StringList(e.Names),
			Oneway:        e.Oneway,
			Distance:      e.Distance,
			IsRemoved:     e.IsRemoved,
			IsHighlighted: e.IsHighlighted,
			SelfCreated:   e.SelfCreated,
		}
		if e.Extra["osmid"] != "" {
			jl.OSMID = e.Extra["osmid"]
		}
		if len(e.Geometry) > 0 {
			jl.Geometry = wkt.MarshalString(e.Geometry)
		}
		doc.Links = append(doc.Links, jl)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode node-link JSON: %w", err)
	}
	return nil
}
