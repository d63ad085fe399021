package models

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type OpenSessionRequest struct {
	Graph    string `json:"graph" binding:"required"`
	Policy   string `json:"policy,omitempty"`
	KeepNode *int64 `json:"keep_node,omitempty"`
}

// CommandRequest describes one editing command. Type selects the command,
// the other fields are read depending on it.
type CommandRequest struct {
	Type string `json:"type" binding:"required"`

	// toggle, highlight, split_graph: "12,5-9,6-9-2" or "all"
	Selection string `json:"selection,omitempty"`
	// toggle_type: highway type, "-" prefix for every other type
	HighwayType string `json:"highway_type,omitempty"`
	// highlight_by_name
	Names []string `json:"names,omitempty"`
	// add_node, add_nodes
	Points []Location `json:"points,omitempty"`
	// add_edge
	Src        string `json:"src,omitempty"`
	Dst        string `json:"dst,omitempty"`
	Undirected bool   `json:"undirected,omitempty"`
	// add_edges: "1-2-3,7-8"
	Paths string `json:"paths,omitempty"`
	// extend_graph: name of the stored graph to merge in
	Graph      string `json:"graph,omitempty"`
	KeepActive bool   `json:"keep_active,omitempty"`
	// split_graph, save_graph
	Name         string `json:"name,omitempty"`
	IncludeSeeds bool   `json:"include_seeds,omitempty"`
}

type CircuitRequest struct {
	Source              *int64  `json:"source,omitempty"`
	UseLargestComponent *bool   `json:"use_largest_component,omitempty"`
	Component           int     `json:"component,omitempty"`
	TurnBackWeight      float64 `json:"turn_back_weight,omitempty"`
	MatchOnWeight       bool    `json:"match_on_weight,omitempty"`
	// Weights overrides the walk cost of a street, keyed "src-dst"
	Weights map[string]float64 `json:"weights,omitempty"`
}

type SaveRequest struct {
	Name string `json:"name" binding:"required"`
}
