package db

import (
	"context"
	"database/sql"
)

// Database is a pooled connection to one relational backend.
type Database interface {
	Querier

	// Transaction runs fn inside a transaction, committing when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// BeginTx starts a transaction that the caller must commit or roll back.
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Transaction, error)

	Ping(ctx context.Context) error
	Close() error
	Stats() sql.DBStats
}

// Transaction is an open transaction.
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Rows is the result of a query.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row is the result of a single-row query.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result summarizes an executed statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
