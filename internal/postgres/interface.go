package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ DB = (*pgxpool.Pool)(nil)
	_ DB = (*pgx.Conn)(nil)

	_ Queryable = (pgx.Tx)(nil)
)

// Queryable executes queries. Both live connections and open transactions
// satisfy it, so repository query methods work identically inside and
// outside a transaction.
type Queryable interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// DB is the repository's handle on the database: queries plus the ability
// to open transactions.
type DB interface {
	Queryable
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}
