package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/timebank/backoffice/internal/config"
)

// Open opens the postgres pool, verifies it and configures connection limits.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("database connection established",
		slog.String("host", cfg.Host), slog.String("name", cfg.Name))
	return db, nil
}

// Bootstrap opens the database, creates the schema and optionally seeds reference data.
func Bootstrap(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Seed {
		if err := Seed(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("reference data seeded")
	}
	return db, nil
}
