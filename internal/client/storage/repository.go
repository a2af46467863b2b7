// Package storage persists opaque JSON blobs under string keys for the
// client-side managers (menu cache, filter snapshot).
//
// Two backends are provided: SQLiteRepository (the default, a local file)
// and RedisRepository (shared across processes). Both follow the same
// contract: Get returns (nil, nil) for an absent key and Delete of an
// absent key is not an error.
package storage

import (
	"context"
	"database/sql"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// DBTX is the subset of database/sql used by SQLiteRepository.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
