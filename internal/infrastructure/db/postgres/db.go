// Package postgres is the PostgreSQL credential store.
package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type DB struct {
	Pool Pool
	key  string
}

var openPool = func(ctx context.Context, dsn string) (Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// registry shares one pool per process and DSN, so repeated Open calls from
// different components never multiply connections.
var registry = struct {
	mu  sync.Mutex
	dbs map[string]*DB
}{dbs: make(map[string]*DB)}

func registryKey(dsn string) string {
	return fmt.Sprintf("%d|%s", os.Getpid(), dsn)
}

// Open returns the shared DB for dsn, connecting on first use.
func Open(ctx context.Context, dsn string) (*DB, error) {
	key := registryKey(dsn)

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if db, ok := registry.dbs[key]; ok {
		return db, nil
	}
	pool, err := openPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	db := &DB{Pool: pool, key: key}
	registry.dbs[key] = db
	return db, nil
}

// Close closes the pool and forgets it, so a later Open reconnects.
func (db *DB) Close() {
	registry.mu.Lock()
	if registry.dbs[db.key] == db {
		delete(registry.dbs, db.key)
	}
	registry.mu.Unlock()
	db.Pool.Close()
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
