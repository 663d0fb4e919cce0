// Package store is the persistence gateway: CRUD over the durable tables
// plus a row-change subscription on video records. Every operation returns
// an explicit error; nothing in this package panics.
package store

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"clipforge/internal/domain"
	"clipforge/internal/infra"
)

// Store executes the sqlinline catalog against the database.
type Store struct {
	sql infra.SQLExecutor
	log zerolog.Logger
}

func New(sql infra.SQLExecutor, logger zerolog.Logger) *Store {
	return &Store{sql: sql, log: logger}
}

// Gateway bundles the SQL store with the realtime watcher so callers get the
// full persistence surface from one value.
type Gateway struct {
	*Store
	watcher *Watcher
}

func NewGateway(pool *pgxpool.Pool, logger zerolog.Logger) *Gateway {
	runner := infra.NewSQLRunner(pool, logger)
	return &Gateway{
		Store:   New(runner, logger),
		watcher: NewWatcher(pool, logger),
	}
}

// Run drives the watcher's notification loop until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	return g.watcher.Run(ctx)
}

// WatchVideo subscribes fn to row changes for one video record.
func (g *Gateway) WatchVideo(videoID string, fn func(domain.VideoRecord)) (io.Closer, error) {
	return g.watcher.Subscribe(videoID, fn), nil
}
