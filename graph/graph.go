package graph

import (
	"sort"

	"github.com/paulmach/orb"
)

// NodeID identifies a street intersection (or a dead end) in the graph
type NodeID int64

// Node represents a vertex of the street network
type Node struct {
	ID            NodeID            // Unique identifier for the node
	Lat           float64           // Geographic latitude in degrees (y)
	Lng           float64           // Geographic longitude in degrees (x)
	HasLocation   bool              // False when the loader supplied no coordinates
	IsRemoved     bool              // Soft-deleted: kept for undo, ignored for routing
	IsHighlighted bool              // Marked by the user, e.g. a completed street
	Extra         map[string]string // Attributes without a dedicated field
}

// EdgeID is the (src, dst, key) triple of a multigraph edge
type EdgeID struct {
	Src NodeID
	Dst NodeID
	Key int
}

// Reversed returns the id with its endpoints swapped
func (id EdgeID) Reversed() EdgeID {
	return EdgeID{Src: id.Dst, Dst: id.Src, Key: id.Key}
}

// EdgeRef references one or all parallel edges between two nodes. A nil Key
// selects every parallel edge.
type EdgeRef struct {
	Src NodeID
	Dst NodeID
	Key *int
}

// Edge represents a street segment between two nodes
type Edge struct {
	Src           NodeID
	Dst           NodeID
	Key           int
	Highway       string         // Road type tag (footway, residential, ...)
	Names         []string       // Street names carried by the segment
	Distance      float64        // Physical length in meters
	Weight        float64        // Secondary cost, only used while pairing odd nodes
	Geometry      orb.LineString // Optional polyline, points are (lng, lat)
	Oneway        bool
	IsRemoved     bool
	IsHighlighted bool
	SelfCreated   bool // Added by hand in the editor
	Augmented     bool // Placeholder for a duplicated shortest path
	NVisits       int  // Set on circuit output only
	Sequence      []int
	Extra         map[string]string
}

// ID returns the (src, dst, key) triple of the edge
func (e *Edge) ID() EdgeID {
	return EdgeID{Src: e.Src, Dst: e.Dst, Key: e.Key}
}

// Other returns the endpoint of the edge opposite to id
func (e *Edge) Other(id NodeID) NodeID {
	if e.Src == id {
		return e.Dst
	}
	return e.Src
}

// HasName reports whether the edge carries the given street name
func (e *Edge) HasName(name string) bool {
	for _, n := range e.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the edge
func (e *Edge) Clone() *Edge {
	c := *e
	if e.Names != nil {
		c.Names = append([]string(nil), e.Names...)
	}
	if e.Geometry != nil {
		c.Geometry = e.Geometry.Clone()
	}
	if e.Sequence != nil {
		c.Sequence = append([]int(nil), e.Sequence...)
	}
	c.Extra = cloneExtra(e.Extra)
	return &c
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	c := *n
	c.Extra = cloneExtra(n.Extra)
	return &c
}

func cloneExtra(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Graph is a directed or undirected multigraph of street segments.
// Nodes and edges are iterated in insertion order so every traversal and
// tie-break is reproducible.
type Graph struct {
	Directed bool

	nodes     map[NodeID]*Node
	nodeOrder []NodeID
	edges     map[EdgeID]*Edge
	edgeOrder []EdgeID
	incident  map[NodeID][]EdgeID // Edges touching a node, in insertion order
}

// New creates an empty graph
func New(directed bool) *Graph {
	return &Graph{
		Directed: directed,
		nodes:    make(map[NodeID]*Node),
		edges:    make(map[EdgeID]*Edge),
		incident: make(map[NodeID][]EdgeID),
	}
}

func NewDirected() *Graph   { return New(true) }
func NewUndirected() *Graph { return New(false) }

// AddNode inserts a node with a location, or updates the location of an
// existing node.
func (g *Graph) AddNode(id NodeID, lat, lng float64) *Node {
	if n, ok := g.nodes[id]; ok {
		n.Lat, n.Lng, n.HasLocation = lat, lng, true
		return n
	}
	return g.PutNode(&Node{ID: id, Lat: lat, Lng: lng, HasLocation: true})
}

// PutNode inserts n, replacing the attributes of a node with the same id
// while keeping its position in the iteration order.
func (g *Graph) PutNode(n *Node) *Node {
	if _, ok := g.nodes[n.ID]; !ok {
		g.nodeOrder = append(g.nodeOrder, n.ID)
	}
	g.nodes[n.ID] = n
	return n
}

func (g *Graph) ensureNode(id NodeID) {
	if _, ok := g.nodes[id]; !ok {
		g.PutNode(&Node{ID: id})
	}
}

func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []*Node {
	result := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		result = append(result, g.nodes[id])
	}
	return result
}

// NodeIDs returns all node ids in insertion order
func (g *Graph) NodeIDs() []NodeID {
	return append([]NodeID(nil), g.nodeOrder...)
}

func (g *Graph) NumNodes() int { return len(g.nodes) }
func (g *Graph) NumEdges() int { return len(g.edges) }

// MaxNodeID returns the largest node id, or -1 for an empty graph
func (g *Graph) MaxNodeID() NodeID {
	maxID := NodeID(-1)
	for id := range g.nodes {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// NextNodeID returns len(nodes), bumped until it does not collide with an
// existing node.
func (g *Graph) NextNodeID() NodeID {
	id := NodeID(len(g.nodes))
	for g.HasNode(id) {
		id++
	}
	return id
}

// KeysBetween returns the keys of all edges from src to dst. For undirected
// graphs edges stored as dst to src are included as well.
func (g *Graph) KeysBetween(src, dst NodeID) []int {
	var keys []int
	for _, id := range g.incident[src] {
		if id.Src == src && id.Dst == dst {
			keys = append(keys, id.Key)
		} else if !g.Directed && id.Src == dst && id.Dst == src && src != dst {
			keys = append(keys, id.Key)
		}
	}
	sort.Ints(keys)
	return keys
}

// nextKey follows the multigraph convention: the number of existing keys,
// incremented until unused.
func (g *Graph) nextKey(src, dst NodeID) int {
	keys := g.KeysBetween(src, dst)
	used := make(map[int]bool, len(keys))
	for _, k := range keys {
		used[k] = true
	}
	key := len(keys)
	for used[key] {
		key++
	}
	return key
}

// AddEdge inserts e with a freshly assigned key and returns its id. Missing
// endpoints are created without a location.
func (g *Graph) AddEdge(e *Edge) EdgeID {
	e.Key = g.nextKey(e.Src, e.Dst)
	return g.AddEdgeWithKey(e)
}

// AddEdgeWithKey inserts e under its own key, replacing an edge with the
// same id.
func (g *Graph) AddEdgeWithKey(e *Edge) EdgeID {
	g.ensureNode(e.Src)
	g.ensureNode(e.Dst)

	id := e.ID()
	if !g.Directed {
		if _, ok := g.edges[id.Reversed()]; ok && id.Src != id.Dst {
			id = id.Reversed()
			e.Src, e.Dst = e.Dst, e.Src
		}
	}

	if _, ok := g.edges[id]; !ok {
		g.edgeOrder = append(g.edgeOrder, id)
		g.incident[id.Src] = append(g.incident[id.Src], id)
		if id.Src != id.Dst {
			g.incident[id.Dst] = append(g.incident[id.Dst], id)
		}
	}
	g.edges[id] = e
	return id
}

// Edge looks up an edge by id. Undirected graphs also match the reversed id.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) {
	if e, ok := g.edges[id]; ok {
		return e, true
	}
	if !g.Directed {
		if e, ok := g.edges[id.Reversed()]; ok {
			return e, true
		}
	}
	return nil, false
}

// HasEdge reports whether any edge connects src to dst
func (g *Graph) HasEdge(src, dst NodeID) bool {
	return len(g.KeysBetween(src, dst)) > 0
}

// EdgesBetween returns all parallel edges from src to dst, ordered by key
func (g *Graph) EdgesBetween(src, dst NodeID) []*Edge {
	var result []*Edge
	for _, key := range g.KeysBetween(src, dst) {
		if e, ok := g.Edge(EdgeID{Src: src, Dst: dst, Key: key}); ok {
			result = append(result, e)
		}
	}
	return result
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*Edge {
	result := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		result = append(result, g.edges[id])
	}
	return result
}

// Incident returns every edge touching the node, incoming and outgoing
func (g *Graph) Incident(id NodeID) []*Edge {
	result := make([]*Edge, 0, len(g.incident[id]))
	for _, eid := range g.incident[id] {
		result = append(result, g.edges[eid])
	}
	return result
}

// Degree counts incident edges, self-loops twice
func (g *Graph) Degree(id NodeID) int {
	degree := 0
	for _, eid := range g.incident[id] {
		degree++
		if eid.Src == eid.Dst {
			degree++
		}
	}
	return degree
}

// Neighbors returns the distinct nodes adjacent to id, in edge order
func (g *Graph) Neighbors(id NodeID) []NodeID {
	seen := make(map[NodeID]bool)
	var result []NodeID
	for _, eid := range g.incident[id] {
		other := eid.Dst
		if other == id {
			other = eid.Src
		}
		if !seen[other] {
			seen[other] = true
			result = append(result, other)
		}
	}
	return result
}

// HasDirectedEdge reports whether the edge can be traversed from src to dst
// in the stored direction.
func (g *Graph) HasDirectedEdge(src, dst NodeID) bool {
	if !g.Directed {
		return g.HasEdge(src, dst)
	}
	for _, id := range g.incident[src] {
		if id.Src == src && id.Dst == dst {
			return true
		}
	}
	return false
}

// RemoveEdge deletes an edge, returning false when it does not exist
func (g *Graph) RemoveEdge(id EdgeID) bool {
	e, ok := g.Edge(id)
	if !ok {
		return false
	}
	id = e.ID()

	delete(g.edges, id)
	g.edgeOrder = removeEdgeID(g.edgeOrder, id)
	g.incident[id.Src] = removeEdgeID(g.incident[id.Src], id)
	if id.Src != id.Dst {
		g.incident[id.Dst] = removeEdgeID(g.incident[id.Dst], id)
	}
	return true
}

// RemoveNode deletes a node together with its incident edges
func (g *Graph) RemoveNode(id NodeID) bool {
	if !g.HasNode(id) {
		return false
	}
	for _, eid := range append([]EdgeID(nil), g.incident[id]...) {
		g.RemoveEdge(eid)
	}

	delete(g.nodes, id)
	delete(g.incident, id)
	for i, nid := range g.nodeOrder {
		if nid == id {
			g.nodeOrder = append(g.nodeOrder[:i], g.nodeOrder[i+1:]...)
			break
		}
	}
	return true
}

func removeEdgeID(ids []EdgeID, id EdgeID) []EdgeID {
	for i, other := range ids {
		if other == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Copy returns a deep copy of the graph
func (g *Graph) Copy() *Graph {
	c := New(g.Directed)
	for _, n := range g.Nodes() {
		c.PutNode(n.Clone())
	}
	for _, e := range g.Edges() {
		c.AddEdgeWithKey(e.Clone())
	}
	return c
}

// Subgraph returns a copy of the graph induced by the given nodes
func Subgraph(g *Graph, nodes []NodeID) *Graph {
	keep := make(map[NodeID]bool, len(nodes))
	for _, id := range nodes {
		keep[id] = true
	}

	result := New(g.Directed)
	for _, n := range g.Nodes() {
		if keep[n.ID] {
			result.PutNode(n.Clone())
		}
	}
	for _, e := range g.Edges() {
		if keep[e.Src] && keep[e.Dst] {
			result.AddEdgeWithKey(e.Clone())
		}
	}
	return result
}

// ActiveSubgraph returns a copy without removed nodes, removed edges and
// edges touching a removed node.
func ActiveSubgraph(g *Graph) *Graph {
	result := New(g.Directed)
	for _, n := range g.Nodes() {
		if !n.IsRemoved {
			result.PutNode(n.Clone())
		}
	}
	for _, e := range g.Edges() {
		if e.IsRemoved || !result.HasNode(e.Src) || !result.HasNode(e.Dst) {
			continue
		}
		result.AddEdgeWithKey(e.Clone())
	}
	return result
}
