package core

import (
	"context"
	"database/sql"
)

// DBExecutor is the subset of database/sql query methods shared by *sql.DB,
// *sql.Conn and *sql.Tx. Repositories run against whatever executor the
// service leased from the pool.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type (
	// ConnLease is a database connection checked out by exactly one caller.
	ConnLease interface {
		DB() DBExecutor
		Standalone() bool
	}

	// ConnPool lends and reclaims bounded database connections. The concrete
	// implementation lives in storage/database; tests substitute no-op pools.
	ConnPool interface {
		Acquire(ctx context.Context) (ConnLease, error)
		Release(lease ConnLease)
		Shutdown(ctx context.Context) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
