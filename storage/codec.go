package storage

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"coverage-route-server/graph"
)

// Database drivers store graphs as the same gob snapshot FileStore writes
func encodeGraph(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeGraph(data []byte) (*graph.Graph, error) {
	var snap graph.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return graph.FromSnapshot(snap), nil
}

// encodeCircuit returns the JSON columns of a circuit row
func encodeCircuit(rec *CircuitRecord) (stats, steps []byte, err error) {
	if stats, err = json.Marshal(rec.Stats); err != nil {
		return nil, nil, fmt.Errorf("failed to encode circuit stats: %w", err)
	}
	if steps, err = json.Marshal(rec.Steps); err != nil {
		return nil, nil, fmt.Errorf("failed to encode circuit steps: %w", err)
	}
	return stats, steps, nil
}

func decodeCircuit(rec *CircuitRecord, stats, steps []byte) error {
	if err := json.Unmarshal(stats, &rec.Stats); err != nil {
		return fmt.Errorf("failed to decode circuit stats: %w", err)
	}
	if len(steps) == 0 {
		return nil
	}
	if err := json.Unmarshal(steps, &rec.Steps); err != nil {
		return fmt.Errorf("failed to decode circuit steps: %w", err)
	}
	return nil
}
