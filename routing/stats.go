package routing

import (
	"fmt"
	"strings"

	"coverage-route-server/graph"
)

// Step is one traversal of the circuit, oriented from Src to Dst
type Step struct {
	Src  graph.NodeID
	Dst  graph.NodeID
	Edge *graph.Edge
}

// Circuit is a closed walk: each step starts where the previous one ended
type Circuit []Step

// Nodes returns the visited node sequence, the source repeated at the end
func (c Circuit) Nodes() []graph.NodeID {
	if len(c) == 0 {
		return nil
	}
	nodes := make([]graph.NodeID, 0, len(c)+1)
	nodes = append(nodes, c[0].Src)
	for _, s := range c {
		nodes = append(nodes, s.Dst)
	}
	return nodes
}

// Stats summarizes a circuit. Distances are in meters and
// PercentageBacktracked ranges over 0-100.
type Stats struct {
	Source                    graph.NodeID `json:"source"`
	TotalDistanceM            float64      `json:"total_distance_m"`
	TotalDistanceBacktrackedM float64      `json:"total_distance_backtracked_m"`
	PercentageBacktracked     float64      `json:"percentage_backtracked"`
	NNodes                    int          `json:"n_nodes"`
	NEdges                    int          `json:"n_edges"`
	NTraversals               int          `json:"n_traversals"`
	NMultipleEdgeVisits       int          `json:"n_multiple_edge_visits"`
	NMultipleNodeVisits       int          `json:"n_multiple_node_visits"`
}

// CollectStats counts visits per street segment. Every traversal after the
// first of an unordered node pair is backtracking. The returned circuit
// shares one edge copy per pair, carrying the visit count and the indexes
// of the steps that traverse it.
func CollectStats(circuit Circuit) (Circuit, Stats) {
	var stats Stats
	if len(circuit) == 0 {
		return Circuit{}, stats
	}
	stats.Source = circuit[0].Src
	stats.NTraversals = len(circuit)

	visited := make(map[[2]graph.NodeID]*graph.Edge)
	nodeCounts := make(map[graph.NodeID]int)

	for idx, s := range circuit {
		key := PairKey(s.Src, s.Dst)
		stats.TotalDistanceM += s.Edge.Distance
		nodeCounts[s.Src]++
		nodeCounts[s.Dst]++

		if shared, ok := visited[key]; ok {
			stats.TotalDistanceBacktrackedM += s.Edge.Distance
			stats.NMultipleEdgeVisits++
			shared.NVisits++
			shared.Sequence = append(shared.Sequence, idx)
			continue
		}

		shared := s.Edge.Clone()
		shared.NVisits = 1
		shared.Sequence = []int{idx}
		visited[key] = shared
	}

	if stats.TotalDistanceM > 0 {
		stats.PercentageBacktracked = 100 * stats.TotalDistanceBacktrackedM / stats.TotalDistanceM
	}
	stats.NNodes = len(nodeCounts)
	stats.NEdges = len(visited)
	for _, count := range nodeCounts {
		if count > 2 {
			stats.NMultipleNodeVisits++
		}
	}

	result := make(Circuit, len(circuit))
	for i, s := range circuit {
		result[i] = Step{Src: s.Src, Dst: s.Dst, Edge: visited[PairKey(s.Src, s.Dst)]}
	}
	return result, stats
}

// Summary renders the circuit overview printed after a solve
func Summary(circuit Circuit, stats Stats) string {
	if len(circuit) == 0 {
		return "Circuit overview\n--------------------------\nEmpty circuit\n--------------------------\n"
	}

	dist := stats.TotalDistanceM
	back := stats.TotalDistanceBacktrackedM
	first, last := circuit[0], circuit[len(circuit)-1]

	var b strings.Builder
	b.WriteString("Circuit overview\n")
	b.WriteString("--------------------------\n")
	fmt.Fprintf(&b, "Total distance (km): %.3f\n", dist/1000)
	fmt.Fprintf(&b, "    - New roads: %.3f (%.2f%%)\n", (dist-back)/1000, 100-stats.PercentageBacktracked)
	fmt.Fprintf(&b, "    - Backtracked: %.3f (%.2f%%)\n", back/1000, stats.PercentageBacktracked)
	fmt.Fprintf(&b, "Circuit | %d -> %d -> ... -> %d -> %d\n", first.Src, first.Dst, last.Src, last.Dst)
	fmt.Fprintf(&b, "    - Number of nodes: %d (%d double visited)\n", stats.NNodes, stats.NMultipleNodeVisits)
	fmt.Fprintf(&b, "    - Number of edges: %d (%d double visited)\n", stats.NEdges, stats.NMultipleEdgeVisits)
	b.WriteString("--------------------------\n")
	return b.String()
}
