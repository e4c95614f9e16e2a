package dialect

import "context"

// Dialect names understood by this module. The schema synchronizer (package
// dialect/sql/schema) only targets Postgres; the query builder and the
// driver wrapper in dialect/sql are dialect-aware for the others too.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ExecQuerier wraps the two basic database operations. Both Driver and Tx
// implement it, so code that only needs to run statements can stay agnostic
// of whether it is inside a transaction.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. args must be a
	// []any of positional parameters; v, if non-nil, receives the result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows, scanning them into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the external collaborator assumed by both the query builder and
// the schema synchronizer: a capability to run SQL against a database and to
// report which dialect it speaks. Transport, pooling, and connection
// lifecycle belong to the concrete implementation (see dialect/sql.Driver).
type Driver interface {
	ExecQuerier
	// Tx starts a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close releases any resources held by the driver.
	Close() error
	// Dialect reports the dialect name, one of the constants above.
	Dialect() string
}

// Tx is an ExecQuerier scoped to a single transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
