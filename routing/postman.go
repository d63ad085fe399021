package routing

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"coverage-route-server/graph"
)

var (
	// ErrNoRoutableComponent is returned when the graph is disconnected and
	// no component could be selected
	ErrNoRoutableComponent = errors.New("no routable component")
	// ErrMatchingFailed is returned when the odd nodes admit no pairing
	ErrMatchingFailed = errors.New("odd nodes could not be paired")
)

// Options tunes a Postman solve
type Options struct {
	// Source is the start and end of the circuit. It defaults to the smallest
	// node id of the routed component.
	Source *graph.NodeID
	// Weights overrides the cost of choosing an edge during the walk, keyed
	// by PairKey. Lower is preferred.
	Weights map[[2]graph.NodeID]float64
	// UseLargestComponent routes the largest component of a disconnected
	// graph. Otherwise Component designates it.
	UseLargestComponent bool
	// Component is the 1-based index of the component to route, components
	// being sorted from largest to smallest.
	Component int
	// TurnBackWeight is the cost of returning to the previous vertex
	TurnBackWeight float64
	// MatchOnWeight pairs odd nodes on the secondary edge weight instead of
	// distance
	MatchOnWeight bool
}

// Result is the outcome of a solve
type Result struct {
	Circuit   Circuit
	Stats     Stats
	Augmented *graph.Graph // Simple graph plus one augmented edge per matched pair
	Simple    *graph.Graph // Simple undirected graph the circuit runs on
	// Origins maps every synthetic node of Simple to the edge of the routed
	// component it was cut from
	Origins   map[graph.NodeID]graph.EdgeID
}

// Postman solves the route inspection problem on street graphs
type Postman struct {
	opts     Options
	directed *graph.Graph
	simple   *graph.Graph
}

func NewPostman(opts Options) *Postman {
	if opts.TurnBackWeight == 0 {
		opts.TurnBackWeight = DefaultTurnBackWeight
	}
	return &Postman{opts: opts}
}

// Solve computes a closed walk covering every active edge of g, duplicating
// as little distance as possible. g is not modified.
func (p *Postman) Solve(g *graph.Graph) (*Result, error) {
	empty := &Result{Circuit: Circuit{}}

	active := graph.ActiveSubgraph(g)
	if active.NumNodes() == 0 {
		return empty, nil
	}

	component, err := p.selectComponent(active)
	if err != nil {
		return empty, err
	}

	directed := graph.ToSimpleDirected(component)
	simple := graph.ToSimpleUndirected(directed.Graph)
	p.directed, p.simple = directed.Graph, simple.Graph

	log.Println("Finding all odd nodes and their pairs...")
	odd := graph.FindOddNodes(p.simple)

	log.Printf("Finding minimum weight pairs of %d odd nodes...", len(odd))
	pairs, err := p.matchOddNodes(odd)
	if err != nil {
		return empty, err
	}

	log.Println("Adding minimum weight edges to the graph and finding the circuit...")
	augmented := p.simple.Copy()
	for _, pair := range pairs {
		dist, weight, _ := p.shortestDistWeight(pair[0], pair[1])
		augmented.AddEdge(&graph.Edge{
			Src:       pair[0],
			Dst:       pair[1],
			Distance:  dist,
			Weight:    weight,
			Augmented: true,
		})
	}

	source := p.source()
	naive := EulerCircuit(augmented, source, p.opts.Weights, p.opts.TurnBackWeight)
	circuit, err := p.expand(naive)
	if err != nil {
		return empty, err
	}

	circuit, stats := CollectStats(circuit)
	log.Printf("Circuit found: %d steps, %.0fm (%.1f%% backtracked)",
		stats.NTraversals, stats.TotalDistanceM, stats.PercentageBacktracked)

	return &Result{
		Circuit:   circuit,
		Stats:     stats,
		Augmented: augmented,
		Simple:    p.simple,
		Origins:   composeOrigins(directed, simple),
	}, nil
}

// composeOrigins follows the synthetic nodes of the undirected pass back
// through the directed pass to the edges of the routed component
func composeOrigins(directed, simple *graph.Normalized) map[graph.NodeID]graph.EdgeID {
	origins := make(map[graph.NodeID]graph.EdgeID, len(directed.Synthetic)+len(simple.Synthetic))
	for mid, id := range directed.Synthetic {
		origins[mid] = id
	}
	for mid, id := range simple.Synthetic {
		if o, ok := directed.Synthetic[id.Src]; ok {
			id = o
		} else if o, ok := directed.Synthetic[id.Dst]; ok {
			id = o
		}
		origins[mid] = id
	}
	return origins
}

func (p *Postman) selectComponent(active *graph.Graph) (*graph.Graph, error) {
	components := graph.FindComponents(active, graph.NoToggle)
	if len(components) <= 1 {
		return active, nil
	}

	log.Println("Graph is not connected, picking a component to work with")
	sort.SliceStable(components, func(i, j int) bool {
		return len(components[i]) > len(components[j])
	})

	idx := p.opts.Component - 1
	if p.opts.UseLargestComponent {
		idx = 0
	}
	if idx < 0 || idx >= len(components) {
		log.Printf("WARNING: component %d is not one of the %d components", p.opts.Component, len(components))
		return nil, fmt.Errorf("%w: %d components", ErrNoRoutableComponent, len(components))
	}
	return graph.Subgraph(active, components[idx]), nil
}

func (p *Postman) source() graph.NodeID {
	if p.opts.Source != nil && p.simple.HasNode(*p.opts.Source) {
		return *p.opts.Source
	}
	if p.opts.Source != nil {
		log.Printf("WARNING: source %d is not in the routed component, using the smallest node id", *p.opts.Source)
	}

	ids := p.simple.NodeIDs()
	source := ids[0]
	for _, id := range ids[1:] {
		if id < source {
			source = id
		}
	}
	return source
}

// matchOddNodes pairs the odd nodes through a minimum-weight perfect
// matching of their shortest path costs.
func (p *Postman) matchOddNodes(odd []graph.NodeID) ([][2]graph.NodeID, error) {
	if len(odd) == 0 {
		return nil, nil
	}
	if len(odd)%2 != 0 {
		log.Printf("ERROR: found %d odd nodes, an odd count cannot be paired", len(odd))
		return nil, fmt.Errorf("%w: %d odd nodes", ErrMatchingFailed, len(odd))
	}

	cost := make([][]int64, len(odd))
	for i := range cost {
		cost[i] = make([]int64, len(odd))
	}
	for i, src := range odd {
		sp := Dijkstra(p.simple, src, ByDistance)
		for j := i + 1; j < len(odd); j++ {
			c := NoPair
			if dist, weight, ok := p.pathDistWeight(sp, odd[j]); ok {
				if p.opts.MatchOnWeight {
					dist = weight
				}
				c = millimeters(dist)
			}
			cost[i][j], cost[j][i] = c, c
		}
	}

	mate, ok := MinWeightPerfectMatching(cost)
	if !ok {
		log.Printf("ERROR: no perfect matching over %d odd nodes", len(odd))
		return nil, fmt.Errorf("%w: %d odd nodes", ErrMatchingFailed, len(odd))
	}

	var pairs [][2]graph.NodeID
	for i, j := range mate {
		if i < j {
			pairs = append(pairs, PairKey(odd[i], odd[j]))
		}
	}
	return pairs, nil
}

func millimeters(meters float64) int64 {
	return int64(math.Round(meters * 1000))
}

// shortestDistWeight returns the distance and secondary weight of the
// shortest path between two nodes of the simple graph.
func (p *Postman) shortestDistWeight(src, dst graph.NodeID) (float64, float64, bool) {
	return p.pathDistWeight(Dijkstra(p.simple, src, ByDistance), dst)
}

func (p *Postman) pathDistWeight(sp *ShortestPaths, dst graph.NodeID) (float64, float64, bool) {
	path, ok := sp.PathTo(dst)
	if !ok {
		return 0, 0, false
	}

	var dist, weight float64
	for i := 0; i+1 < len(path); i++ {
		edges := p.simple.EdgesBetween(path[i], path[i+1])
		if len(edges) == 0 {
			continue
		}
		dist += edges[0].Distance
		weight += FindWeight(p.directed, path[i], path[i+1], edges[0])
	}
	return dist, weight, true
}

// expand replaces every augmented step by the shortest path it stands for
func (p *Postman) expand(naive Circuit) (Circuit, error) {
	circuit := make(Circuit, 0, len(naive))
	for _, s := range naive {
		if !s.Edge.Augmented {
			circuit = append(circuit, s)
			continue
		}

		path, ok := ShortestPath(p.simple, s.Src, s.Dst)
		if !ok {
			return nil, fmt.Errorf("no path from %d to %d to expand augmented edge", s.Src, s.Dst)
		}
		for i := 0; i+1 < len(path); i++ {
			e := p.simple.EdgesBetween(path[i], path[i+1])[0]
			circuit = append(circuit, Step{Src: path[i], Dst: path[i+1], Edge: e})
		}
	}
	return circuit, nil
}

// FindWeight is the pairing cost of walking e from u to v: its distance,
// doubled for cycle lanes travelled against their only direction.
func FindWeight(directed *graph.Graph, u, v graph.NodeID, e *graph.Edge) float64 {
	if directed.HasDirectedEdge(u, v) {
		return e.Distance
	}

	highway := e.Highway
	if highway == "" {
		highway = "unclassified"
	}
	if strings.HasPrefix(highway, "cycle") {
		return 2 * e.Distance
	}
	return e.Distance
}
