package storage

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"coverage-route-server/graph"
)

// ErrInvalidName is returned for graph names that cannot be used as a key
var ErrInvalidName = errors.New("invalid graph name")

const (
	graphExt   = ".gob"
	circuitExt = ".json"
	corruptExt = ".corrupt"
)

// FileStore keeps graphs as gob snapshots and circuits as JSON documents
// under a data directory:
//
//	<dir>/graphs/<name>.gob
//	<dir>/circuits/<id>.json
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory layout under dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{"graphs", "circuits"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}
	return &FileStore{dir: dir}, nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (s *FileStore) graphPath(name string) string {
	return filepath.Join(s.dir, "graphs", name+graphExt)
}

func (s *FileStore) circuitPath(id uuid.UUID) string {
	return filepath.Join(s.dir, "circuits", id.String()+circuitExt)
}

// writeFile writes through a temporary file so readers never see a partial
// document
func writeFile(path string, encode func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) SaveGraph(ctx context.Context, name string, g *graph.Graph) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.graphPath(name)
	err := writeFile(path, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(g.Snapshot())
	})
	if err != nil {
		return fmt.Errorf("failed to encode GOB to %s: %w", path, err)
	}
	log.Printf("Saved graph %q: %d nodes, %d edges", name, g.NumNodes(), g.NumEdges())
	return nil
}

func (s *FileStore) LoadGraph(ctx context.Context, name string) (*graph.Graph, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readGraph(s.graphPath(name))
}

func readGraph(path string) (*graph.Graph, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap graph.Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode GOB from %s: %w", path, err)
	}
	return graph.FromSnapshot(snap), nil
}

func (s *FileStore) ListGraphs(ctx context.Context) ([]GraphInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, "graphs"))
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	infos := []GraphInfo{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := strings.CutSuffix(entry.Name(), graphExt)
		if entry.IsDir() || !ok {
			continue
		}
		g, err := readGraph(s.graphPath(name))
		if err != nil {
			log.Printf("WARNING: Skipping graph %q: %v", name, err)
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, infoOf(name, g, fi.ModTime().UTC()))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *FileStore) SaveCircuit(ctx context.Context, rec *CircuitRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.circuitPath(rec.ID)
	err := writeFile(path, func(f *os.File) error {
		return json.NewEncoder(f).Encode(rec)
	})
	if err != nil {
		return fmt.Errorf("failed to write circuit %s: %w", rec.ID, err)
	}
	return nil
}

func (s *FileStore) GetCircuit(ctx context.Context, id uuid.UUID) (*CircuitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := readCircuit(s.circuitPath(id))
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func readCircuit(path string) (*CircuitRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec CircuitRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse circuit %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

// ListCircuits moves unreadable circuit files aside and skips them
func (s *FileStore) ListCircuits(ctx context.Context, graphName string) ([]*CircuitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, "circuits")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list circuits: %w", err)
	}

	records := []*CircuitRecord{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), circuitExt) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		rec, err := readCircuit(path)
		if err != nil {
			log.Printf("WARNING: Moving unreadable circuit file aside: %v", err)
			if err := os.Rename(path, path+corruptExt); err != nil {
				log.Printf("ERROR: Could not move %s: %v", path, err)
			}
			continue
		}
		if graphName != "" && rec.GraphName != graphName {
			continue
		}
		records = append(records, rec.summary())
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *FileStore) Close() error { return nil }
