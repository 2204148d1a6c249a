package db

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

var (
	newPool = pgxpool.New
	fatalf  = log.Fatalf
)

// InitPostgres opens the shared connection pool. Every trade, signal and
// investment write goes through it, so the service refuses to start without
// a reachable database.
func InitPostgres(ctx context.Context) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fatalf("DATABASE_URL is required")
		return
	}

	pool, err := newPool(ctx, dsn)
	if err != nil {
		fatalf("failed to create Postgres pool: %v", err)
		return
	}
	if err := pool.Ping(ctx); err != nil {
		fatalf("failed to connect to Postgres: %v", err)
		return
	}

	Pool = pool
	log.Println("Connected to Postgres")
}
