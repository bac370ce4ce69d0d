package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edusphere/backend/core"
)

const pqUniqueViolation = "23505"

// trapErr maps driver errors onto the application error taxonomy before
// wrapping whatever is left.
func trapErr(err error, resource, msg string) error {
	if err == sql.ErrNoRows {
		return core.NewNotFoundError(resource)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return core.NewConflictError(resource + " already exists")
	}
	return errors.Wrap(err, msg)
}

// selectAll runs query and scans every row into dest, a pointer to a slice of
// db-tagged structs.
func selectAll(ctx context.Context, dbx core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	rows, err := dbx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	return sqlx.StructScan(rows, dest)
}

// orderPage appends ORDER BY / OFFSET / LIMIT with positional placeholders.
func orderPage(orderBy string, offArg, limArg int) string {
	return fmt.Sprintf(" ORDER BY %s OFFSET $%d LIMIT $%d", orderBy, offArg, limArg)
}

// exists runs an EXISTS query.
func exists(ctx context.Context, dbx core.DBExecutor, query string, args ...interface{}) (bool, error) {
	var found bool
	err := dbx.QueryRowContext(ctx, query, args...).Scan(&found)
	return found, err
}
