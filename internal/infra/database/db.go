package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute

	pingAttempts = 5
	pingBackoff  = 2 * time.Second
)

// NewPostgresConnection opens the raids database and waits until it answers a ping.
// The ping is retried pingAttempts times, pingBackoff apart, or until ctx is done.
func NewPostgresConnection(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingBackoff)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt == pingAttempts || ctx.Err() != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
		case <-time.After(pingBackoff):
		}
	}
}
