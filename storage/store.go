package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"coverage-route-server/graph"
	"coverage-route-server/routing"
)

// ErrNotFound is returned when a graph or circuit does not exist in the store
var ErrNotFound = errors.New("not found")

// GraphStore persists named street graphs
type GraphStore interface {
	// SaveGraph stores g under name, replacing any graph with that name
	SaveGraph(ctx context.Context, name string, g *graph.Graph) error

	// LoadGraph returns the graph stored under name or ErrNotFound
	LoadGraph(ctx context.Context, name string) (*graph.Graph, error)

	// ListGraphs returns the stored graphs sorted by name
	ListGraphs(ctx context.Context) ([]GraphInfo, error)
}

// CircuitStore persists solved circuits
type CircuitStore interface {
	SaveCircuit(ctx context.Context, rec *CircuitRecord) error
	GetCircuit(ctx context.Context, id uuid.UUID) (*CircuitRecord, error)
	// ListCircuits returns the circuits of a graph, newest first, without
	// their steps. An empty graphName lists every circuit.
	ListCircuits(ctx context.Context, graphName string) ([]*CircuitRecord, error)
}

// Store is a graph and circuit store backed by one driver
type Store interface {
	GraphStore
	CircuitStore
	Close() error
}

// GraphInfo describes a stored graph
type GraphInfo struct {
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}

func infoOf(name string, g *graph.Graph, at time.Time) GraphInfo {
	return GraphInfo{Name: name, Nodes: g.NumNodes(), Edges: g.NumEdges(), UpdatedAt: at}
}

// CircuitRecord is a persisted circuit: its statistics and every step with
// the coordinates it was walked along.
type CircuitRecord struct {
	ID        uuid.UUID     `json:"id"`
	GraphName string        `json:"graph_name"`
	CreatedAt time.Time     `json:"created_at"`
	Stats     routing.Stats `json:"stats"`
	Steps     []StepRecord  `json:"steps,omitempty"`
}

// StepRecord is one traversal of a persisted circuit
type StepRecord struct {
	Src       graph.NodeID `json:"src"`
	Dst       graph.NodeID `json:"dst"`
	Highway   string       `json:"highway,omitempty"`
	Names     []string     `json:"name,omitempty"`
	DistanceM float64      `json:"distance_m"`
	NVisits   int          `json:"n_visits"`
	Sequence  []int        `json:"sequence,omitempty"`
	Coords    [][2]float64 `json:"coords,omitempty"` // [lng, lat] pairs
}

// NewCircuitRecord captures a solve result. Step coordinates are resolved
// against the simple graph of the result.
func NewCircuitRecord(graphName string, res *routing.Result) *CircuitRecord {
	rec := &CircuitRecord{
		ID:        uuid.New(),
		GraphName: graphName,
		CreatedAt: time.Now().UTC(),
		Stats:     res.Stats,
		Steps:     make([]StepRecord, 0, len(res.Circuit)),
	}

	for _, s := range res.Circuit {
		step := StepRecord{Src: s.Src, Dst: s.Dst}
		if s.Edge != nil {
			step.Highway = s.Edge.Highway
			step.Names = s.Edge.Names
			step.DistanceM = s.Edge.Distance
			step.NVisits = s.Edge.NVisits
			step.Sequence = s.Edge.Sequence
		}
		if res.Simple != nil {
			for _, c := range graph.EdgeCoords(res.Simple, s.Src, s.Dst, nil) {
				step.Coords = append(step.Coords, [2]float64{c.Lng, c.Lat})
			}
		}
		rec.Steps = append(rec.Steps, step)
	}
	return rec
}

// summary returns a copy without steps, as listed by ListCircuits
func (r *CircuitRecord) summary() *CircuitRecord {
	out := *r
	out.Steps = nil
	return &out
}

// GeoJSON exports the stored steps as LineString features, skipping steps
// without coordinates.
func (r *CircuitRecord) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for idx, s := range r.Steps {
		if len(s.Coords) < 2 {
			continue
		}
		line := make(orb.LineString, 0, len(s.Coords))
		for _, c := range s.Coords {
			line = append(line, orb.Point(c))
		}

		f := geojson.NewFeature(line)
		f.Properties["step"] = idx
		f.Properties["src"] = int64(s.Src)
		f.Properties["dst"] = int64(s.Dst)
		f.Properties["distance"] = s.DistanceM
		f.Properties["highway"] = s.Highway
		f.Properties["name"] = s.Names
		f.Properties["n_visits"] = s.NVisits
		f.Properties["sequence"] = s.Sequence
		fc.Append(f)
	}
	return fc
}
