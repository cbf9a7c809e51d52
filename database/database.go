package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"retail-insights/config"
	"retail-insights/services"
)

// Store is the record store behind every surface: pipeline reads and writes,
// customer inquiries and the connection check.
type Store interface {
	services.Store
	services.InquiryStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Connect sets up a Postgres connection pool and checks that it answers.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// OpenSQLite opens the SQLite database at path. ":memory:" is allowed; the
// pool is capped at one connection so every query sees the same database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite database: %w", err)
	}
	return db, nil
}

// NewStore opens the store selected by DB_DRIVER and makes sure the tables it
// owns exist.
func NewStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := NewSQLiteStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("✅ Successfully opened the sqlite database")
		return store, nil

	case "postgres", "":
		pool, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("✅ Successfully connected to the database")
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown DB_DRIVER %q", config.ErrInvalidConfig, cfg.DBDriver)
	}
}
