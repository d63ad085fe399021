package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"coverage-route-server/graph"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore keeps graphs and circuits in a single SQLite file
type SQLiteStore struct {
	conn    *sql.DB
	writeMu sync.Mutex // SQLite has a single writer
}

// NewSQLiteStore opens the database in WAL mode and creates the schema
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			log.Printf("WARNING: failed to set %s: %v", pragma, err)
		}
	}

	s := &SQLiteStore{conn: conn}
	if err := s.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Printf("Connected to SQLite database: %s", dbPath)
	return s, nil
}

// EnsureSchema creates the tables if they do not exist
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) SaveGraph(ctx context.Context, name string, g *graph.Graph) error {
	if err := validName(name); err != nil {
		return err
	}
	snapshot, err := encodeGraph(g)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `
		INSERT INTO graphs (name, directed, node_count, edge_count, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			directed = excluded.directed,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`
	_, err = s.conn.ExecContext(ctx, query,
		name, g.Directed, g.NumNodes(), g.NumEdges(), snapshot,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to save graph %q: %w", name, err)
	}
	log.Printf("Saved graph %q: %d nodes, %d edges", name, g.NumNodes(), g.NumEdges())
	return nil
}

func (s *SQLiteStore) LoadGraph(ctx context.Context, name string) (*graph.Graph, error) {
	var snapshot []byte
	err := s.conn.QueryRowContext(ctx, `SELECT snapshot FROM graphs WHERE name = ?`, name).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load graph %q: %w", name, err)
	}
	return decodeGraph(snapshot)
}

func (s *SQLiteStore) ListGraphs(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT name, node_count, edge_count, updated_at
		FROM graphs
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list graphs: %w", err)
	}
	defer rows.Close()

	infos := []GraphInfo{}
	for rows.Next() {
		var info GraphInfo
		var updatedAt string
		if err := rows.Scan(&info.Name, &info.Nodes, &info.Edges, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan graph: %w", err)
		}
		info.UpdatedAt = parseTime(updatedAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) SaveCircuit(ctx context.Context, rec *CircuitRecord) error {
	stats, steps, err := encodeCircuit(rec)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO circuits (id, graph_name, created_at, stats, steps)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.GraphName, rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(stats), string(steps))
	if err != nil {
		return fmt.Errorf("sqlite: failed to save circuit %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetCircuit(ctx context.Context, id uuid.UUID) (*CircuitRecord, error) {
	rec := &CircuitRecord{ID: id}
	var createdAt, stats, steps string
	err := s.conn.QueryRowContext(ctx, `
		SELECT graph_name, created_at, stats, steps
		FROM circuits
		WHERE id = ?
	`, id.String()).Scan(&rec.GraphName, &createdAt, &stats, &steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get circuit %s: %w", id, err)
	}

	rec.CreatedAt = parseTime(createdAt)
	if err := decodeCircuit(rec, []byte(stats), []byte(steps)); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListCircuits(ctx context.Context, graphName string) ([]*CircuitRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, graph_name, created_at, stats
		FROM circuits
		WHERE ? = '' OR graph_name = ?
		ORDER BY created_at DESC
	`, graphName, graphName)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list circuits: %w", err)
	}
	defer rows.Close()

	records := []*CircuitRecord{}
	for rows.Next() {
		var rec CircuitRecord
		var id, createdAt, stats string
		if err := rows.Scan(&id, &rec.GraphName, &createdAt, &stats); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan circuit: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			log.Printf("WARNING: Skipping circuit with invalid id %q", id)
			continue
		}
		rec.CreatedAt = parseTime(createdAt)
		if err := decodeCircuit(&rec, []byte(stats), nil); err != nil {
			log.Printf("WARNING: Skipping circuit %s: %v", id, err)
			continue
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// parseTime reads the RFC3339 timestamps written by this store, the zero
// time when unreadable
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
