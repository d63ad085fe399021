package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"coverage-route-server/config"
	"coverage-route-server/graph"
	"coverage-route-server/preprocessing"
	"coverage-route-server/storage"
)

type coverageDump struct {
	Graph    string                 `json:"graph"`
	Streets  []string               `json:"streets"`
	Coverage preprocessing.Coverage `json:"coverage"`
}

func main() {
	cfg := config.Load()

	var name, dir, out string
	var debug bool
	flag.StringVar(&name, "graph", "", "Name of the stored graph to compare")
	flag.StringVar(&dir, "dir", cfg.StreetsDir, "Directory containing completed.json and todo.json")
	flag.StringVar(&out, "out", "", "Optional path to write the coverage as JSON")
	flag.BoolVar(&debug, "debug", false, "List the completed and todo streets")
	flag.Parse()

	if name == "" || dir == "" {
		fmt.Println("Usage: street_index -graph <name> -dir <streets dir> [-out coverage.json]")
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	g, err := store.LoadGraph(ctx, name)
	if err != nil {
		log.Fatalf("failed to load graph %q: %v", name, err)
	}

	log.Printf("Loading street index from %s...", dir)
	idx, err := preprocessing.LoadStreetIndex(dir)
	if err != nil {
		log.Fatalf("failed to load street index: %v", err)
	}

	streets := graph.FindStreets(g)
	cov := idx.Compare(streets)

	fmt.Printf("Streets in both %s (%d) and the index (%d): %d\n", name, len(streets), len(idx.All), cov.InBoth)
	fmt.Printf("\t- Only in %s: %d\n", name, cov.OnlyInGraph)
	fmt.Printf("\t- Only in the index: %d\n", cov.OnlyInIndex)
	fmt.Printf("Streets completed: %d (%.3f%%)\n", len(cov.Completed), 100*cov.FractionCompleted)
	if debug {
		for _, street := range cov.Completed {
			fmt.Printf("\t- %s\n", street)
		}
	}
	fmt.Printf("Streets todo: %d (%.3f%%)\n", len(cov.Todo), 100*cov.FractionTodo)
	if debug {
		for _, street := range cov.Todo {
			fmt.Printf("\t- %s\n", street)
		}
	}

	if out == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		log.Fatalf("failed to ensure output dir: %v", err)
	}
	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("failed to create output file %s: %v", out, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(coverageDump{Graph: name, Streets: streets, Coverage: cov}); err != nil {
		log.Fatalf("failed to write JSON: %v", err)
	}
	fmt.Printf("Coverage written to %s\n", out)
}
