package services

import (
	"context"
	"fmt"

	"coverage-route-server/editor"
	"coverage-route-server/graph"
	"coverage-route-server/models"
)

// buildCommand turns a request into a command. Invalid input is rejected
// here, before anything reaches the history.
func (s *SessionService) buildCommand(ctx context.Context, g *graph.Graph, req models.CommandRequest) (editor.Command, error) {
	switch req.Type {
	case "toggle", "highlight", "split_graph":
		sel, err := editor.ParseSelection(g, req.Selection)
		if err != nil {
			return nil, err
		}
		switch req.Type {
		case "toggle":
			return editor.NewToggle(sel), nil
		case "highlight":
			return editor.NewHighlight(sel), nil
		}
		return &editor.SplitGraph{
			Nodes:        sel.Nodes,
			Edges:        sel.Edges,
			BaseName:     req.Name,
			IncludeSeeds: req.IncludeSeeds,
		}, nil

	case "toggle_type":
		return &editor.ToggleType{Type: req.HighwayType}, nil

	case "highlight_by_name":
		if len(req.Names) == 0 {
			return nil, editor.ErrCancelled
		}
		return &editor.HighlightByName{Names: req.Names}, nil

	case "add_node":
		if len(req.Points) != 1 {
			return nil, fmt.Errorf("%w: add_node takes exactly one point, got %d", ErrInvalidRequest, len(req.Points))
		}
		return &editor.AddNode{Lat: req.Points[0].Lat, Lng: req.Points[0].Lng}, nil

	case "add_nodes":
		if len(req.Points) == 0 {
			return nil, editor.ErrCancelled
		}
		coords := make([]graph.Coord, 0, len(req.Points))
		for _, p := range req.Points {
			coords = append(coords, graph.Coord{Lat: p.Lat, Lng: p.Lng})
		}
		return &editor.AddNodes{Coords: coords}, nil

	case "add_edge":
		cmd, err := editor.NewAddEdge(req.Src, req.Dst, req.Undirected)
		if err != nil {
			return nil, err
		}
		return cmd, nil

	case "add_edges":
		paths, err := editor.ParsePaths(req.Paths)
		if err != nil {
			return nil, err
		}
		return &editor.AddEdges{Paths: paths}, nil

	case "remove_toggled":
		return &editor.RemoveToggled{}, nil

	case "extend_graph":
		if req.Graph == "" {
			return nil, editor.ErrCancelled
		}
		other, err := s.store.LoadGraph(ctx, req.Graph)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph %q: %w", req.Graph, err)
		}
		return &editor.ExtendGraph{Other: other, KeepActive: req.KeepActive}, nil

	case "set_distances":
		return &editor.SetDistances{}, nil

	case "save_graph":
		return &editor.SaveGraph{GraphName: req.Name}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, req.Type)
	}
}
