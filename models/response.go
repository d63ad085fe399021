package models

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"coverage-route-server/routing"
)

type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ApiError   `json:"error,omitempty"`
	Meta    *MetaData   `json:"meta,omitempty"`
}

type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type MetaData struct {
	ProcessTime string `json:"process_time_ms"`
	ApiVersion  string `json:"api_version"`
	ResultCount *int   `json:"result_count,omitempty"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Graph     string    `json:"graph"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	Removed   int       `json:"removed_edges"`
	Policy    string    `json:"policy"`
	CanUndo   bool      `json:"can_undo"`
	CanRedo   bool      `json:"can_redo"`
	History   []string  `json:"history"`
	CreatedAt time.Time `json:"created_at"`
}

type CommandResponse struct {
	Command    string          `json:"command"`
	Session    SessionResponse `json:"session"`
	NodeIDs    []int64         `json:"node_ids,omitempty"`
	Components [][]int64       `json:"components,omitempty"`
	Saved      []string        `json:"saved,omitempty"`
}

type CircuitResponse struct {
	ID        string                     `json:"id,omitempty"`
	GraphName string                     `json:"graph_name"`
	Stats     routing.Stats              `json:"stats"`
	Summary   string                     `json:"summary"`
	Route     *geojson.FeatureCollection `json:"route"`
}
