package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"coverage-route-server/models"
)

// Options selects and configures a store driver
type Options struct {
	Driver      models.StoreDriver
	DataDir     string
	SQLitePath  string // defaults to <DataDir>/routes.db
	DatabaseURL string
}

// Open returns the store for opts.Driver. When PostgreSQL cannot be reached
// the file store under DataDir is used instead.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case models.SQLiteDriver:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "routes.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return NewSQLiteStore(ctx, path)

	case models.PostgresDriver:
		if opts.DatabaseURL == "" {
			log.Println("WARNING: DATABASE_URL not set, using the file store")
			break
		}
		store, err := NewPostgresStore(ctx, opts.DatabaseURL)
		if err == nil {
			return store, nil
		}
		log.Printf("WARNING: Could not connect to database: %v", err)
		log.Println("Falling back to the file store")

	case models.FileDriver, "":
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}

	store, err := NewFileStore(opts.DataDir)
	if err != nil {
		return nil, err
	}
	log.Printf("Using file store in %s", opts.DataDir)
	return store, nil
}
