package schema

import "fmt"

// CatalogError wraps a driver failure encountered while reading the
// catalog, quoting the SQL that failed.
type CatalogError struct {
	SQL string
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("dialect/sql/schema: catalog query failed: %v\nquery: %s", e.Err, e.SQL)
}

func (e *CatalogError) Unwrap() error { return e.Err }
