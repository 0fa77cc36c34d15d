package storage

import (
	"context"
	"fmt"
	"strings"

	"video-summarizer/internal/models"
	"video-summarizer/shared/config"
)

// Store persists video summaries.
type Store interface {
	// Init creates the summaries table if it does not exist. Safe to call repeatedly.
	Init(ctx context.Context) error
	Insert(ctx context.Context, s models.NewSummary) (int64, error)
	// List returns every summary, newest first.
	List(ctx context.Context) ([]models.Summary, error)
	// Delete removes the summary with id. A missing id is not an error.
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the backend selected by cfg.
func Open(cfg *config.DatabaseConfig) (Store, error) {
	driver, dsn, err := resolveBackend(cfg)
	if err != nil {
		return nil, err
	}

	var store *SQLStore
	switch driver {
	case DriverPostgres:
		store, err = OpenPostgres(dsn)
	default:
		store, err = OpenSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// resolveBackend picks the driver from cfg.Driver, falling back to the URL scheme.
// postgres:// and postgresql:// select PostgreSQL; sqlite://path, file: URIs and
// bare paths select SQLite.
func resolveBackend(cfg *config.DatabaseConfig) (driver, dsn string, err error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	driver = strings.ToLower(cfg.Driver)
	if driver == "" {
		switch {
		case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
			driver = DriverPostgres
		default:
			driver = DriverSQLite
		}
	}

	switch driver {
	case DriverPostgres:
		return driver, url, nil
	case DriverSQLite:
		dsn = strings.TrimPrefix(url, "sqlite://")
		if isMemoryDSN(dsn) {
			// Connections are not pooled, so each one would see its own empty database.
			return "", "", fmt.Errorf("in-memory SQLite database %q is not supported, use a file path", dsn)
		}
		return driver, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}
