package routing

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"coverage-route-server/graph"
)

// squareGraph builds the directed square 1-2-3-4 with 100m sides
func squareGraph() *graph.Graph {
	g := graph.NewDirected()
	for _, p := range [][2]graph.NodeID{{1, 2}, {2, 3}, {3, 4}, {4, 1}} {
		g.AddEdge(&graph.Edge{Src: p[0], Dst: p[1], Distance: 100, Highway: "residential"})
	}
	return g
}

func assertClosed(t *testing.T, c Circuit) {
	t.Helper()
	if len(c) == 0 {
		t.Fatalf("empty circuit")
	}
	if c[0].Src != c[len(c)-1].Dst {
		t.Errorf("circuit starts at %d but ends at %d", c[0].Src, c[len(c)-1].Dst)
	}
	for i := 1; i < len(c); i++ {
		if c[i-1].Dst != c[i].Src {
			t.Errorf("step %d ends at %d but step %d starts at %d", i-1, c[i-1].Dst, i, c[i].Src)
		}
	}
}

func assertCovers(t *testing.T, simple *graph.Graph, c Circuit) {
	t.Helper()
	walked := make(map[[2]graph.NodeID]bool)
	for _, s := range c {
		if !simple.HasEdge(s.Src, s.Dst) {
			t.Errorf("step %d-%d is not an edge of the simple graph", s.Src, s.Dst)
		}
		walked[PairKey(s.Src, s.Dst)] = true
	}
	for _, e := range simple.Edges() {
		if !walked[PairKey(e.Src, e.Dst)] {
			t.Errorf("edge %d-%d is never walked", e.Src, e.Dst)
		}
	}
}

// assertCoversStreets checks every edge of g against the circuit: split
// edges through their pieces, twins through the street they collapsed into.
func assertCoversStreets(t *testing.T, g *graph.Graph, res *Result) {
	t.Helper()
	walked := make(map[[2]graph.NodeID]bool)
	pieces := make(map[graph.EdgeID]map[[2]graph.NodeID]float64)
	for _, s := range res.Circuit {
		origin, ok := res.Origins[s.Src]
		if !ok {
			origin, ok = res.Origins[s.Dst]
		}
		if !ok {
			walked[PairKey(s.Src, s.Dst)] = true
			continue
		}
		if pieces[origin] == nil {
			pieces[origin] = make(map[[2]graph.NodeID]float64)
		}
		pieces[origin][PairKey(s.Src, s.Dst)] = s.Edge.Distance
	}

	complete := func(e *graph.Edge) bool {
		cut, ok := pieces[e.ID()]
		if !ok {
			return false
		}
		sum := 0.0
		for _, d := range cut {
			sum += d
		}
		return math.Abs(sum-e.Distance) < 1e-6
	}

	edges := g.Edges()
	for _, e := range edges {
		if e.IsRemoved || complete(e) || walked[PairKey(e.Src, e.Dst)] {
			continue
		}
		twin := false
		for _, o := range edges {
			if o != e && PairKey(o.Src, o.Dst) == PairKey(e.Src, e.Dst) &&
				math.Abs(o.Distance-e.Distance) < 1e-6 && complete(o) {
				twin = true
				break
			}
		}
		if !twin {
			t.Errorf("edge %v (%.1fm) is not covered by the circuit", e.ID(), e.Distance)
		}
	}
}

func assertAccounting(t *testing.T, c Circuit, stats Stats) {
	t.Helper()
	total := 0.0
	backtracked := 0.0
	seen := make(map[[2]graph.NodeID]bool)
	for _, s := range c {
		total += s.Edge.Distance
		key := PairKey(s.Src, s.Dst)
		if !seen[key] {
			seen[key] = true
			backtracked += s.Edge.Distance * float64(s.Edge.NVisits-1)
		}
	}
	if math.Abs(total-stats.TotalDistanceM) > 1e-6 {
		t.Errorf("total distance = %f, want %f", stats.TotalDistanceM, total)
	}
	if math.Abs(backtracked-stats.TotalDistanceBacktrackedM) > 1e-6 {
		t.Errorf("backtracked distance = %f, want %f", stats.TotalDistanceBacktrackedM, backtracked)
	}
}

func TestSolveSquare(t *testing.T) {
	res, err := NewPostman(Options{}).Solve(squareGraph())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if len(res.Circuit) != 4 {
		t.Errorf("got %d steps, want 4", len(res.Circuit))
	}
	if res.Stats.TotalDistanceM != 400 {
		t.Errorf("total distance = %f, want 400", res.Stats.TotalDistanceM)
	}
	if res.Stats.TotalDistanceBacktrackedM != 0 {
		t.Errorf("backtracked = %f, want 0", res.Stats.TotalDistanceBacktrackedM)
	}
	want := []graph.NodeID{1, 2, 3, 4, 1}
	if got := res.Circuit.Nodes(); !reflect.DeepEqual(got, want) {
		t.Errorf("circuit = %v, want %v", got, want)
	}
	assertClosed(t, res.Circuit)
}

func TestSolveSquareWithDiagonal(t *testing.T) {
	g := squareGraph()
	g.AddEdge(&graph.Edge{Src: 1, Dst: 3, Distance: 150})

	res, err := NewPostman(Options{}).Solve(g)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if n := res.Augmented.NumEdges(); n != 6 {
		t.Errorf("augmented graph has %d edges, want 6", n)
	}
	if len(res.Circuit) != 6 {
		t.Errorf("got %d steps, want 6", len(res.Circuit))
	}
	if res.Stats.TotalDistanceM != 700 {
		t.Errorf("total distance = %f, want 700", res.Stats.TotalDistanceM)
	}
	if res.Stats.TotalDistanceBacktrackedM != 150 {
		t.Errorf("backtracked = %f, want 150", res.Stats.TotalDistanceBacktrackedM)
	}

	diagonal := 0
	for _, s := range res.Circuit {
		if PairKey(s.Src, s.Dst) == [2]graph.NodeID{1, 3} {
			diagonal++
			if s.Edge.NVisits != 2 || len(s.Edge.Sequence) != 2 {
				t.Errorf("diagonal visits = %d, sequence = %v, want 2 visits", s.Edge.NVisits, s.Edge.Sequence)
			}
		}
		if s.Edge.Augmented {
			t.Errorf("augmented placeholder %d-%d left in the circuit", s.Src, s.Dst)
		}
	}
	if diagonal != 2 {
		t.Errorf("diagonal walked %d times, want 2", diagonal)
	}

	assertClosed(t, res.Circuit)
	assertCovers(t, res.Simple, res.Circuit)
	assertAccounting(t, res.Circuit, res.Stats)
}

func TestSolveComponents(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.NewDirected()
		for _, p := range [][2]graph.NodeID{{1, 2}, {2, 3}, {3, 1}, {4, 5}, {5, 6}, {6, 7}, {7, 4}} {
			g.AddEdge(&graph.Edge{Src: p[0], Dst: p[1], Distance: 10})
		}
		return g
	}

	tests := []struct {
		name      string
		opts      Options
		wantErr   error
		wantNodes []graph.NodeID
	}{
		{"no designation", Options{}, ErrNoRoutableComponent, nil},
		{"out of range", Options{Component: 3}, ErrNoRoutableComponent, nil},
		{"largest", Options{UseLargestComponent: true}, nil, []graph.NodeID{4, 5, 6, 7, 4}},
		{"designated", Options{Component: 2}, nil, []graph.NodeID{1, 2, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewPostman(tt.opts).Solve(build())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Solve() error = %v, want %v", err, tt.wantErr)
			}
			if got := res.Circuit.Nodes(); !reflect.DeepEqual(got, tt.wantNodes) {
				t.Errorf("circuit = %v, want %v", got, tt.wantNodes)
			}
		})
	}
}

func TestSolveEmptyGraph(t *testing.T) {
	res, err := NewPostman(Options{}).Solve(graph.NewDirected())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if len(res.Circuit) != 0 {
		t.Errorf("got %d steps, want 0", len(res.Circuit))
	}
}

func TestSolveSkipsRemovedElements(t *testing.T) {
	g := squareGraph()
	g.AddEdge(&graph.Edge{Src: 1, Dst: 3, Distance: 150, IsRemoved: true})
	g.AddEdge(&graph.Edge{Src: 4, Dst: 5, Distance: 30})
	n, _ := g.Node(5)
	n.IsRemoved = true

	res, err := NewPostman(Options{}).Solve(g)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if res.Stats.TotalDistanceM != 400 {
		t.Errorf("total distance = %f, want 400", res.Stats.TotalDistanceM)
	}
	if g.NumEdges() != 6 {
		t.Errorf("Solve() modified its input")
	}
}

func TestSolveSource(t *testing.T) {
	tests := []struct {
		name   string
		source graph.NodeID
		want   graph.NodeID
	}{
		{"in component", 3, 3},
		{"missing falls back to smallest id", 42, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := tt.source
			res, err := NewPostman(Options{Source: &source}).Solve(squareGraph())
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if res.Stats.Source != tt.want || res.Circuit[0].Src != tt.want {
				t.Errorf("circuit starts at %d, want %d", res.Circuit[0].Src, tt.want)
			}
		})
	}
}

func TestSolveParallelStreets(t *testing.T) {
	g := graph.NewDirected()
	g.AddNode(1, 0, 0)
	g.AddNode(2, 0, 0.002)
	g.AddNode(3, 0.001, 0.001)
	g.AddEdge(&graph.Edge{Src: 1, Dst: 2, Distance: 100})
	g.AddEdge(&graph.Edge{Src: 2, Dst: 1, Distance: 100})
	g.AddEdge(&graph.Edge{Src: 1, Dst: 2, Distance: 160})
	g.AddEdge(&graph.Edge{Src: 2, Dst: 3, Distance: 50})
	g.AddEdge(&graph.Edge{Src: 3, Dst: 1, Distance: 50})
	g.AddEdge(&graph.Edge{Src: 3, Dst: 3, Distance: 40})
	g.AddEdge(&graph.Edge{Src: 3, Dst: 3, Distance: 25})

	res, err := NewPostman(Options{}).Solve(g)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	assertClosed(t, res.Circuit)
	assertCovers(t, res.Simple, res.Circuit)
	assertCoversStreets(t, g, res)
	assertAccounting(t, res.Circuit, res.Stats)
	if res.Stats.TotalDistanceM < 375-1e-9 {
		t.Errorf("total distance = %f, want at least 375", res.Stats.TotalDistanceM)
	}
	if len(res.Origins) == 0 {
		t.Errorf("no synthetic nodes recorded for the parallel streets")
	}
}

func TestSolveParallelSelfLoops(t *testing.T) {
	tests := []struct {
		name            string
		directed        bool
		loops           []float64
		wantTotal       float64
		wantBacktracked float64
	}{
		{"two loops", true, []float64{50, 30}, 480, 0},
		{"two loops undirected", false, []float64{50, 30}, 480, 0},
		{"loop stored both ways", true, []float64{50, 50}, 450, 0},
		{"three loops with one two-way", true, []float64{50, 30, 30}, 480, 0},
		{"three distinct loops", true, []float64{50, 30, 20}, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.NewUndirected()
			if tt.directed {
				g = graph.NewDirected()
			}
			for _, p := range [][2]graph.NodeID{{1, 2}, {2, 3}, {3, 4}, {4, 1}} {
				g.AddEdge(&graph.Edge{Src: p[0], Dst: p[1], Distance: 100})
			}
			for _, d := range tt.loops {
				g.AddEdge(&graph.Edge{Src: 1, Dst: 1, Distance: d})
			}

			res, err := NewPostman(Options{}).Solve(g)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			assertClosed(t, res.Circuit)
			assertCovers(t, res.Simple, res.Circuit)
			assertCoversStreets(t, g, res)
			assertAccounting(t, res.Circuit, res.Stats)
			if math.Abs(res.Stats.TotalDistanceM-tt.wantTotal) > 1e-6 {
				t.Errorf("total distance = %f, want %f", res.Stats.TotalDistanceM, tt.wantTotal)
			}
			if math.Abs(res.Stats.TotalDistanceBacktrackedM-tt.wantBacktracked) > 1e-6 {
				t.Errorf("backtracked = %f, want %f", res.Stats.TotalDistanceBacktrackedM, tt.wantBacktracked)
			}
		})
	}
}

func TestSolveRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		n := 10 + rng.Intn(30)
		g := graph.NewDirected()
		for i := 0; i < n; i++ {
			g.AddEdge(&graph.Edge{Src: graph.NodeID(i), Dst: graph.NodeID((i + 1) % n), Distance: float64(10 + rng.Intn(200))})
		}
		for k := 0; k < n; k++ {
			src, dst := graph.NodeID(rng.Intn(n)), graph.NodeID(rng.Intn(n))
			if src == dst {
				continue
			}
			g.AddEdge(&graph.Edge{Src: src, Dst: dst, Distance: float64(10 + rng.Intn(200))})
		}
		for k := 0; k < 2; k++ {
			at := graph.NodeID(rng.Intn(n))
			g.AddEdge(&graph.Edge{Src: at, Dst: at, Distance: float64(10 + rng.Intn(100))})
			g.AddEdge(&graph.Edge{Src: at, Dst: at, Distance: float64(200 + rng.Intn(100))})
		}

		res, err := NewPostman(Options{}).Solve(g)
		if err != nil {
			t.Fatalf("trial %d: Solve() error = %v", trial, err)
		}
		assertClosed(t, res.Circuit)
		assertCovers(t, res.Simple, res.Circuit)
		assertCoversStreets(t, g, res)
		assertAccounting(t, res.Circuit, res.Stats)

		lower := 0.0
		for _, e := range res.Simple.Edges() {
			lower += e.Distance
		}
		if res.Stats.TotalDistanceM < lower-1e-6 {
			t.Errorf("trial %d: total %f is below the street length %f", trial, res.Stats.TotalDistanceM, lower)
		}
	}
}

func TestFindWeight(t *testing.T) {
	directed := graph.NewDirected()
	directed.AddEdge(&graph.Edge{Src: 1, Dst: 2})

	tests := []struct {
		name    string
		u, v    graph.NodeID
		highway string
		want    float64
	}{
		{"with direction", 1, 2, "cycleway", 10},
		{"cycle lane against direction", 2, 1, "cycleway", 20},
		{"road against direction", 2, 1, "residential", 10},
		{"no highway", 2, 1, "", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &graph.Edge{Distance: 10, Highway: tt.highway}
			if got := FindWeight(directed, tt.u, tt.v, e); got != tt.want {
				t.Errorf("FindWeight() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	res, err := NewPostman(Options{}).Solve(squareGraph())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	got := Summary(res.Circuit, res.Stats)
	for _, want := range []string{"Total distance (km): 0.400", "Backtracked: 0.000 (0.00%)", "Circuit | 1 -> 2 -> ... -> 4 -> 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
