package preprocessing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// StreetIndex holds the street names tracked outside the graph: every street
// of the city, those already run and those still to do. It is built once
// and only read afterwards.
type StreetIndex struct {
	All       map[string]bool
	Completed map[string]bool
	Todo      map[string]bool
}

// Coverage compares the streets of a graph with the index. Fractions are
// relative to the streets known to both and range over 0-1.
type Coverage struct {
	InBoth            int      `json:"in_both"`
	OnlyInGraph       int      `json:"only_in_graph"`
	OnlyInIndex       int      `json:"only_in_index"`
	Completed         []string `json:"completed"`
	Todo              []string `json:"todo"`
	FractionCompleted float64  `json:"fraction_completed"`
	FractionTodo      float64  `json:"fraction_todo"`
}

// LoadStreetIndex reads completed.json and todo.json from dir, each a JSON
// array of street names. all.json is optional and defaults to the union of
// both lists.
func LoadStreetIndex(dir string) (*StreetIndex, error) {
	idx := &StreetIndex{}

	var err error
	if idx.Completed, err = loadNames(filepath.Join(dir, "completed.json")); err != nil {
		return nil, err
	}
	if idx.Todo, err = loadNames(filepath.Join(dir, "todo.json")); err != nil {
		return nil, err
	}

	idx.All, err = loadNames(filepath.Join(dir, "all.json"))
	if errors.Is(err, fs.ErrNotExist) {
		idx.All = make(map[string]bool, len(idx.Completed)+len(idx.Todo))
		for name := range idx.Completed {
			idx.All[name] = true
		}
		for name := range idx.Todo {
			idx.All[name] = true
		}
	} else if err != nil {
		return nil, err
	}
	return idx, nil
}

func loadNames(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set, nil
}

// CompletedNames returns the completed streets, sorted
func (idx *StreetIndex) CompletedNames() []string {
	return sortedKeys(idx.Completed)
}

// Compare matches the street names found in a graph against the index
func (idx *StreetIndex) Compare(graphStreets []string) Coverage {
	inGraph := make(map[string]bool, len(graphStreets))
	for _, name := range graphStreets {
		inGraph[name] = true
	}

	cov := Coverage{Completed: []string{}, Todo: []string{}}
	for name := range inGraph {
		if !idx.All[name] {
			cov.OnlyInGraph++
			continue
		}
		cov.InBoth++
	}
	for name := range idx.All {
		if !inGraph[name] {
			cov.OnlyInIndex++
		}
	}

	for _, name := range sortedKeys(inGraph) {
		if idx.Completed[name] {
			cov.Completed = append(cov.Completed, name)
		}
		if idx.Todo[name] {
			cov.Todo = append(cov.Todo, name)
		}
	}

	if cov.InBoth > 0 {
		cov.FractionCompleted = float64(len(cov.Completed)) / float64(cov.InBoth)
		cov.FractionTodo = float64(len(cov.Todo)) / float64(cov.InBoth)
	}
	return cov
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
