package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coverage-route-server/graph"
)

//go:embed postgres_schema.sql
var postgresSchema string

// PostgresStore keeps graphs and circuits in PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the schema
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Println("Connected to PostgreSQL")
	return s, nil
}

// EnsureSchema creates the tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Health checks database connectivity
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) SaveGraph(ctx context.Context, name string, g *graph.Graph) error {
	if err := validName(name); err != nil {
		return err
	}
	snapshot, err := encodeGraph(g)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO route_graphs (name, directed, node_count, edge_count, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE SET
			directed = EXCLUDED.directed,
			node_count = EXCLUDED.node_count,
			edge_count = EXCLUDED.edge_count,
			snapshot = EXCLUDED.snapshot,
			updated_at = now()
	`
	_, err = s.pool.Exec(ctx, query, name, g.Directed, g.NumNodes(), g.NumEdges(), snapshot)
	if err != nil {
		return fmt.Errorf("postgres: failed to save graph %q: %w", name, err)
	}
	log.Printf("Saved graph %q: %d nodes, %d edges", name, g.NumNodes(), g.NumEdges())
	return nil
}

func (s *PostgresStore) LoadGraph(ctx context.Context, name string) (*graph.Graph, error) {
	var snapshot []byte
	err := s.pool.QueryRow(ctx, `SELECT snapshot FROM route_graphs WHERE name = $1`, name).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load graph %q: %w", name, err)
	}
	return decodeGraph(snapshot)
}

func (s *PostgresStore) ListGraphs(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, node_count, edge_count, updated_at
		FROM route_graphs
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list graphs: %w", err)
	}
	defer rows.Close()

	infos := []GraphInfo{}
	for rows.Next() {
		var info GraphInfo
		if err := rows.Scan(&info.Name, &info.Nodes, &info.Edges, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan graph: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *PostgresStore) SaveCircuit(ctx context.Context, rec *CircuitRecord) error {
	stats, steps, err := encodeCircuit(rec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO route_circuits (id, graph_name, created_at, stats, steps)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID.String(), rec.GraphName, rec.CreatedAt, string(stats), string(steps))
	if err != nil {
		return fmt.Errorf("postgres: failed to save circuit %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetCircuit(ctx context.Context, id uuid.UUID) (*CircuitRecord, error) {
	rec := &CircuitRecord{ID: id}
	var stats, steps []byte
	err := s.pool.QueryRow(ctx, `
		SELECT graph_name, created_at, stats, steps
		FROM route_circuits
		WHERE id = $1
	`, id.String()).Scan(&rec.GraphName, &rec.CreatedAt, &stats, &steps)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get circuit %s: %w", id, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	if err := decodeCircuit(rec, stats, steps); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) ListCircuits(ctx context.Context, graphName string) ([]*CircuitRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, graph_name, created_at, stats
		FROM route_circuits
		WHERE $1::text = '' OR graph_name = $1
		ORDER BY created_at DESC
	`, graphName)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list circuits: %w", err)
	}
	defer rows.Close()

	records := []*CircuitRecord{}
	for rows.Next() {
		var rec CircuitRecord
		var id string
		var createdAt time.Time
		var stats []byte
		if err := rows.Scan(&id, &rec.GraphName, &createdAt, &stats); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan circuit: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			log.Printf("WARNING: Skipping circuit with invalid id %q", id)
			continue
		}
		rec.CreatedAt = createdAt.UTC()
		if err := decodeCircuit(&rec, stats, nil); err != nil {
			log.Printf("WARNING: Skipping circuit %s: %v", id, err)
			continue
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
