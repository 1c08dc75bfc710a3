// Package migrations embeds the PostgreSQL schema.
package migrations

import (
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// FS holds the goose SQL migrations.
//
//go:embed *.sql
var FS embed.FS

// NewProvider returns a goose provider running FS against the pool.
// The returned func closes the database/sql handle wrapping the pool.
func NewProvider(pool *pgxpool.Pool) (*goose.Provider, func(), error) {
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return provider, func() { _ = db.Close() }, nil
}
