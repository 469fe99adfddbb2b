// Package sequence hands out the externally visible, monotonically increasing log ids.
package sequence

import (
	"context"
	"database/sql"

	"todo-api/pkg/logger"
)

// Sequence returns the next value on each call. Values are never reused.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Postgres is a sequence backed by a PostgreSQL SEQUENCE object.
type Postgres struct {
	db   *sql.DB
	name string
}

// NewPostgres returns a sequence reading nextval(name) from db.
func NewPostgres(db *sql.DB, name string) *Postgres {
	return &Postgres{db: db, name: name}
}

func (s *Postgres) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT nextval($1)", s.name).Scan(&n); err != nil {
		logger.Error(ctx, "nextval failed", "error", err, "sequence", s.name)
		return 0, err
	}
	return n, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Select prefers Redis when a client is available and falls back to the PostgreSQL
// sequence. It returns nil when neither store is configured.
func Select(ctx context.Context, db *sql.DB, pgName string) Sequence {
	if c := Client(ctx); c != nil {
		return NewRedis(c, LogIDKey)
	}
	if db == nil {
		return nil
	}
	return NewPostgres(db, pgName)
}
