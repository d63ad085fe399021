package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"coverage-route-server/config"
	"coverage-route-server/graph"
	"coverage-route-server/loader"
	"coverage-route-server/storage"
)

// decodeFile picks the reader from the file extension: .osm and .xml are
// OSM XML extracts, anything else is node-link JSON
func decodeFile(ctx context.Context, inputPath string) (*graph.Graph, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", inputPath, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".osm", ".xml":
		return loader.DecodeOSM(ctx, f)
	default:
		return loader.DecodeNodeLink(f)
	}
}

func clipToPolygon(g *graph.Graph, polygonPath string) (*graph.Graph, error) {
	f, err := os.Open(polygonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open polygon %s: %w", polygonPath, err)
	}
	defer f.Close()

	polygon, err := loader.LoadPolygon(f)
	if err != nil {
		return nil, err
	}
	clipped := loader.Clip(g, polygon)
	log.Printf("Clipped graph to %s: %d of %d nodes kept", polygonPath, clipped.NumNodes(), g.NumNodes())
	return clipped, nil
}

func exportNodeLink(g *graph.Graph, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", outputPath, err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer f.Close()
	return loader.WriteNodeLink(f, g)
}

func importGraph(ctx context.Context, cfg *config.Config, inputPath, name, polygonPath, exportPath string) error {
	raw, err := decodeFile(ctx, inputPath)
	if err != nil {
		return err
	}
	if polygonPath != "" {
		if raw, err = clipToPolygon(raw, polygonPath); err != nil {
			return err
		}
	}
	g := loader.Prepare(raw, cfg.Profile())

	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveGraph(ctx, name, g); err != nil {
		return err
	}
	fmt.Printf("Successfully imported %s as %q\n", inputPath, name)
	fmt.Printf("Nodes: %d, Edges: %d, Streets: %d\n", g.NumNodes(), g.NumEdges(), len(graph.FindStreets(g)))

	if exportPath != "" {
		if err := exportNodeLink(g, exportPath); err != nil {
			return err
		}
		fmt.Printf("Node-link JSON written to %s\n", exportPath)
	}
	return nil
}

func main() {
	var name, polygonPath, exportPath string
	flag.StringVar(&name, "name", "", "Name to store the graph under (defaults to the input file name)")
	flag.StringVar(&polygonPath, "polygon", "", "Optional CSV outline (lat, lon) to clip the graph to")
	flag.StringVar(&exportPath, "export", "", "Optional path to write the prepared graph as node-link JSON")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: import_graph [-name <name>] [-polygon <outline.csv>] [-export <out.json>] <input.json|input.osm>")
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	if name == "" {
		ext := filepath.Ext(inputPath)
		name = strings.TrimSuffix(filepath.Base(inputPath), ext)
	}

	cfg := config.Load()
	if err := importGraph(context.Background(), cfg, inputPath, name, polygonPath, exportPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
