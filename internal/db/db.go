// Package db opens the MySQL connection pool used by the SQL key-value
// backend.
package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type Config struct {
	DSN string
}

func Open(cfg Config) (*sql.DB, error) {
	pool, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}

	// Admission traffic is many small point queries; keep the pool
	// modest and recycle connections so stale ones do not pile up.
	pool.SetMaxOpenConns(20)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)

	return pool, nil
}

func Ping(ctx context.Context, pool *sql.DB) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pool.PingContext(c)
}
