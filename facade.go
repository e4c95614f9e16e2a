package velar

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-velar/velar/dialect"
	dsql "github.com/go-velar/velar/dialect/sql"
	dbschema "github.com/go-velar/velar/dialect/sql/schema"
	decl "github.com/go-velar/velar/schema"
)

// Query starts a typed, fluent query against table, aliased as alias. It
// is a thin facade over dialect/sql.From; see that package for the full
// builder surface (Join, Select, Where, OrderBy, Exec).
func Query(table *decl.Table, alias string) *dsql.FromBuilder {
	return dsql.From(table, alias)
}

// Sync validates tables, diffs them against schemaName's live state in
// drv, and — when dbschema.WithFulfill(true) is passed — applies the
// resolvable divergences. It is a thin facade over
// dialect/sql/schema.Sync that attaches this package's sentinel errors
// to the two fatal failure modes, so callers can branch with errors.Is
// without importing dialect/sql/schema themselves.
func Sync(ctx context.Context, drv dialect.Driver, schemaName string, tables []*decl.Table, opts ...dbschema.Option) (*dbschema.SyncResult, error) {
	result, err := dbschema.Sync(ctx, drv, schemaName, tables, opts...)
	if err == nil {
		return result, nil
	}

	var declErr *decl.DeclarationError
	if errors.As(err, &declErr) {
		return nil, fmt.Errorf("%w: %w", ErrDeclarationInvalid, err)
	}

	var catErr *dbschema.CatalogError
	if errors.As(err, &catErr) {
		return nil, fmt.Errorf("%w: %w", ErrSyncAborted, err)
	}

	return nil, err
}
