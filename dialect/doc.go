// Package dialect provides database dialect abstraction for velar.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing both the typed query builder (dialect/sql) and the
// schema synchronizer (dialect/sql/schema) to treat the physical connection
// as an opaque, externally supplied capability.
//
// # Supported Dialects
//
// The following dialects are recognized by the driver wrapper:
//
//   - Postgres: PostgreSQL database. The schema synchronizer only targets
//     this dialect's catalog (pg_catalog).
//   - MySQL: MySQL/MariaDB database. Supported by the query builder and
//     driver wrapper; not a sync target.
//   - SQLite: SQLite database. Supported by the query builder and driver
//     wrapper; not a sync target.
//
// # Dialect Constants
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface pairs the ExecQuerier methods with transaction control:
//
//	type Tx interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/go-velar/velar/dialect"
//	    "github.com/go-velar/velar/dialect/sql"
//
//	    _ "github.com/lib/pq"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: typed expression algebra, query builder, and the
//     database/sql-backed Driver implementation.
//   - dialect/sql/schema: catalog introspection, diffing, and fulfillment.
//   - dialect/sql/sqlgraph: constraint-violation error classification.
//   - dialect/sqlschema: type mapping and DDL rendering.
package dialect
