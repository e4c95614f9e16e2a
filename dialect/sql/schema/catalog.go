// Package schema compares a declared schema against the live state of a
// PostgreSQL-family catalog, producing a list of divergence Issues with
// remediation DDL, and can fulfill (apply) the resolvable ones.
package schema

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-velar/velar/dialect"
	dsql "github.com/go-velar/velar/dialect/sql"
)

// ColumnRow is one normalized row from the columns introspection query.
type ColumnRow struct {
	Schema      string
	Table       string
	Column      string
	Physical    string
	NotNull     bool
	HasDefault  bool
	IsDropped   bool
	DefaultExpr string
}

// ConstraintRow is one normalized row from the constraints introspection
// query. Type is one of 'p' (primary key), 'f' (foreign key), 'u'
// (unique), 'c' (check), matching pg_constraint.contype.
type ConstraintRow struct {
	Type       byte
	Name       string
	Table      string
	Columns    string
	RefTable   string
	RefColumns string
	OnUpdate   string
	OnDelete   string
	Definition string
}

// IndexRow is one normalized row from the b-tree index introspection
// query.
type IndexRow struct {
	Name    string
	Table   string
	Columns string
}

// DBState is the canonical in-memory snapshot ReadCatalog produces: one
// schema's columns, constraints, and indexes, plus whether the schema
// itself exists.
type DBState struct {
	SchemaExists bool
	Columns      []ColumnRow
	Constraints  []ConstraintRow
	Indexes      []IndexRow
}

// ColumnsFor returns every (non-dropped) column row for table, in the
// order the catalog query returned them.
func (s *DBState) ColumnsFor(table string) []ColumnRow {
	var out []ColumnRow
	for _, c := range s.Columns {
		if c.Table == table && !c.IsDropped {
			out = append(out, c)
		}
	}
	return out
}

// Column finds one column row by table and column name.
func (s *DBState) Column(table, field string) (ColumnRow, bool) {
	for _, c := range s.ColumnsFor(table) {
		if c.Column == field {
			return c, true
		}
	}
	return ColumnRow{}, false
}

// bracedContains reports whether name is an element of a braced list
// like "{col1,col2}". The catalog serializes constraint and index column
// sets this way; the list is parsed into real elements rather than
// substring-matched, so "id" never matches "{identifier}". Declared
// multi-column keys are out of scope, so the list is normally length one.
func bracedContains(list, name string) bool {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(list, "{"), "}")
	if trimmed == "" {
		return false
	}
	for _, elem := range strings.Split(trimmed, ",") {
		if elem == name {
			return true
		}
	}
	return false
}

// ConstraintFor finds the constraint of the given type on table whose
// column list contains field.
func (s *DBState) ConstraintFor(table string, typ byte, field string) (ConstraintRow, bool) {
	for _, c := range s.Constraints {
		if c.Table == table && c.Type == typ && bracedContains(c.Columns, field) {
			return c, true
		}
	}
	return ConstraintRow{}, false
}

// IndexFor finds the b-tree index on table whose column list contains
// field.
func (s *DBState) IndexFor(table, field string) (IndexRow, bool) {
	for _, idx := range s.Indexes {
		if idx.Table == table && bracedContains(idx.Columns, field) {
			return idx, true
		}
	}
	return IndexRow{}, false
}

const schemaListQuery = `SELECT nspname FROM pg_catalog.pg_namespace`

const columnsQuery = `SELECT n.nspname, c.relname, a.attname, t.typname, a.attnotnull, a.atthasdef, a.attisdropped,
	pg_get_expr(ad.adbin, ad.adrelid) AS adbin_sql
FROM pg_catalog.pg_namespace n
JOIN pg_catalog.pg_class c ON c.relnamespace = n.oid
JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid
JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = c.oid AND ad.adnum = a.attnum
WHERE c.relkind = 'r' AND a.attnum > 0 AND n.nspname = $1
ORDER BY c.relname, a.attname`

const constraintsQuery = `SELECT con.contype, con.conname, c.relname,
	(SELECT array_agg(a.attname ORDER BY a.attnum)::text FROM pg_catalog.pg_attribute a
		WHERE a.attrelid = con.conrelid AND a.attnum = ANY(con.conkey)) AS columns,
	rc.relname AS ref_table,
	(SELECT array_agg(ra.attname ORDER BY ra.attnum)::text FROM pg_catalog.pg_attribute ra
		WHERE ra.attrelid = con.confrelid AND ra.attnum = ANY(con.confkey)) AS ref_columns,
	con.confupdtype, con.confdeltype, pg_get_constraintdef(con.oid) AS definition
FROM pg_catalog.pg_constraint con
JOIN pg_catalog.pg_namespace n ON n.oid = con.connamespace
JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
LEFT JOIN pg_catalog.pg_class rc ON rc.oid = con.confrelid
WHERE con.contype IN ('p', 'f', 'u', 'c') AND n.nspname = $1`

const indexesQuery = `SELECT ic.relname AS index_name, tc.relname AS table_name,
	(SELECT array_agg(a.attname ORDER BY a.attnum)::text FROM pg_catalog.pg_attribute a
		WHERE a.attrelid = tc.oid AND a.attnum = ANY(idx.indkey)) AS columns
FROM pg_catalog.pg_index idx
JOIN pg_catalog.pg_class ic ON ic.oid = idx.indexrelid
JOIN pg_catalog.pg_class tc ON tc.oid = idx.indrelid
JOIN pg_catalog.pg_namespace n ON n.oid = tc.relnamespace
JOIN pg_catalog.pg_am am ON am.oid = ic.relam
WHERE am.amname = 'btree' AND n.nspname = $1`

// ReadCatalog issues the four fixed introspection queries against
// schemaName and normalizes the results into a DBState. It performs no
// filtering beyond what the queries themselves express.
func ReadCatalog(ctx context.Context, drv dialect.Driver, schemaName string) (*DBState, error) {
	exists, err := schemaExists(ctx, drv, schemaName)
	if err != nil {
		return nil, err
	}
	state := &DBState{SchemaExists: exists}
	if !exists {
		return state, nil
	}

	if err := readColumns(ctx, drv, schemaName, state); err != nil {
		return nil, err
	}
	if err := readConstraints(ctx, drv, schemaName, state); err != nil {
		return nil, err
	}
	if err := readIndexes(ctx, drv, schemaName, state); err != nil {
		return nil, err
	}
	return state, nil
}

func schemaExists(ctx context.Context, drv dialect.Driver, schemaName string) (bool, error) {
	var rows dsql.Rows
	if err := drv.Query(ctx, schemaListQuery, []any{}, &rows); err != nil {
		return false, &CatalogError{SQL: schemaListQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, &CatalogError{SQL: schemaListQuery, Err: err}
		}
		if name == schemaName {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, &CatalogError{SQL: schemaListQuery, Err: err}
	}
	return false, nil
}

func readColumns(ctx context.Context, drv dialect.Driver, schemaName string, state *DBState) error {
	var rows dsql.Rows
	if err := drv.Query(ctx, columnsQuery, []any{schemaName}, &rows); err != nil {
		return &CatalogError{SQL: columnsQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       ColumnRow
			defExpr sql.NullString
			nspname string
		)
		if err := rows.Scan(&nspname, &c.Table, &c.Column, &c.Physical, &c.NotNull, &c.HasDefault, &c.IsDropped, &defExpr); err != nil {
			return &CatalogError{SQL: columnsQuery, Err: err}
		}
		c.Schema = nspname
		c.DefaultExpr = defExpr.String
		state.Columns = append(state.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return &CatalogError{SQL: columnsQuery, Err: err}
	}
	return nil
}

func readConstraints(ctx context.Context, drv dialect.Driver, schemaName string, state *DBState) error {
	var rows dsql.Rows
	if err := drv.Query(ctx, constraintsQuery, []any{schemaName}, &rows); err != nil {
		return &CatalogError{SQL: constraintsQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			con        ConstraintRow
			contype    string
			cols       sql.NullString
			refTable   sql.NullString
			refColumns sql.NullString
			onUpdate   sql.NullString
			onDelete   sql.NullString
			definition sql.NullString
		)
		if err := rows.Scan(&contype, &con.Name, &con.Table, &cols, &refTable, &refColumns, &onUpdate, &onDelete, &definition); err != nil {
			return &CatalogError{SQL: constraintsQuery, Err: err}
		}
		if len(contype) > 0 {
			con.Type = contype[0]
		}
		con.Columns = cols.String
		con.RefTable = refTable.String
		con.RefColumns = refColumns.String
		con.OnUpdate = onUpdate.String
		con.OnDelete = onDelete.String
		con.Definition = definition.String
		state.Constraints = append(state.Constraints, con)
	}
	if err := rows.Err(); err != nil {
		return &CatalogError{SQL: constraintsQuery, Err: err}
	}
	return nil
}

func readIndexes(ctx context.Context, drv dialect.Driver, schemaName string, state *DBState) error {
	var rows dsql.Rows
	if err := drv.Query(ctx, indexesQuery, []any{schemaName}, &rows); err != nil {
		return &CatalogError{SQL: indexesQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var idx IndexRow
		var cols sql.NullString
		if err := rows.Scan(&idx.Name, &idx.Table, &cols); err != nil {
			return &CatalogError{SQL: indexesQuery, Err: err}
		}
		idx.Columns = cols.String
		state.Indexes = append(state.Indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return &CatalogError{SQL: indexesQuery, Err: err}
	}
	return nil
}
