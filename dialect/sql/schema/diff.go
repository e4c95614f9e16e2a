package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-velar/velar/dialect"
	dsql "github.com/go-velar/velar/dialect/sql"
	"github.com/go-velar/velar/dialect/sqlschema"
	decl "github.com/go-velar/velar/schema"
)

func qualifiedTable(schemaName, table string) string {
	return sqlschema.Ident(schemaName) + "." + sqlschema.Ident(table)
}

// Diff compares tables against state and returns every divergence as an
// Issue, in the fixed pass order described in the package's design
// document: one schemaNotFound issue when the schema itself is missing,
// then a full pass over every table's column shapes, then a full pass
// over every table's keys and indexes. A handful of resolvability
// verdicts require probing the live data (nullability tightening, unique
// and check violations); Diff issues those probes itself and returns the
// probe's driver error, if any, as a fatal error — divergences themselves
// are never returned as errors.
func Diff(ctx context.Context, drv dialect.Driver, schemaName string, tables []*decl.Table, state *DBState) (*SyncResult, error) {
	var issues []*Issue

	if !state.SchemaExists {
		issues = append(issues, &Issue{
			Kind:       SchemaNotFound,
			Schema:     schemaName,
			Resolvable: true,
			Actions:    sqlschema.CreateSchema(schemaName),
		})
	}

	for _, t := range tables {
		tableIssues, err := diffTablePass1(ctx, drv, schemaName, t, state)
		if err != nil {
			return nil, err
		}
		issues = append(issues, tableIssues...)
	}

	for _, t := range tables {
		tableIssues, err := diffTablePass2(ctx, drv, schemaName, t, state)
		if err != nil {
			return nil, err
		}
		issues = append(issues, tableIssues...)
	}

	byName := make(map[string]*decl.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	fixupForeignKeyResolvability(issues, byName, state)

	warnings := undeclaredWarnings(tables, state)
	return assembleResult(issues, warnings), nil
}

func diffTablePass1(ctx context.Context, drv dialect.Driver, schemaName string, t *decl.Table, state *DBState) ([]*Issue, error) {
	cols := state.ColumnsFor(t.Name)
	if len(cols) == 0 {
		return []*Issue{{
			Kind:       TableNotFound,
			Schema:     schemaName,
			Table:      t.Name,
			Resolvable: true,
			Actions:    sqlschema.CreateTable(schemaName, t),
		}}, nil
	}

	var issues []*Issue
	for _, f := range t.Fields {
		col, ok := state.Column(t.Name, f.Name)
		if !ok {
			issues = append(issues, &Issue{
				Kind:       FieldNotFound,
				Schema:     schemaName,
				Table:      t.Name,
				Field:      f.Name,
				Resolvable: true,
				Actions:    sqlschema.AddColumn(schemaName, t.Name, f),
			})
			continue
		}

		if issue := diffColumnType(schemaName, t, f, col); issue != nil {
			issues = append(issues, issue)
		}

		if f.Type == decl.Serial {
			continue
		}

		nullableIssue, err := diffColumnNullable(ctx, drv, schemaName, t, f, col)
		if err != nil {
			return nil, err
		}
		if nullableIssue != nil {
			issues = append(issues, nullableIssue)
		}

		if issue := diffColumnDefault(schemaName, t, f, col); issue != nil {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

func diffColumnType(schemaName string, t *decl.Table, f *decl.Field, col ColumnRow) *Issue {
	if sqlschema.IsSerialIntegerMatch(f.Type, col.Physical) {
		return nil
	}
	observed, known := sqlschema.ToLogical(col.Physical)
	if known && observed == f.Type {
		return nil
	}
	return &Issue{
		Kind:        FieldTypeMismatch,
		Schema:      schemaName,
		Table:       t.Name,
		Field:       f.Name,
		Resolvable:  known && sqlschema.CanConvert(observed, f.Type),
		Description: fmt.Sprintf("observed type %q, declared %q", col.Physical, f.Type),
		Actions:     sqlschema.AlterColumnType(schemaName, t.Name, f.Name, f.Type),
	}
}

func diffColumnNullable(ctx context.Context, drv dialect.Driver, schemaName string, t *decl.Table, f *decl.Field, col ColumnRow) (*Issue, error) {
	observedNullable := !col.NotNull
	if f.Nullable == observedNullable {
		return nil, nil
	}

	issue := &Issue{
		Kind:    FieldNullableMismatch,
		Schema:  schemaName,
		Table:   t.Name,
		Field:   f.Name,
		Actions: sqlschema.AlterColumnNullable(schemaName, t.Name, f.Name, f.Nullable),
	}
	if f.Nullable {
		issue.Resolvable = true
		return issue, nil
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s IS NULL LIMIT 1", qualifiedTable(schemaName, t.Name), sqlschema.Ident(f.Name))
	hasNull, err := probeHasRow(ctx, drv, query)
	if err != nil {
		return nil, err
	}
	issue.Resolvable = !hasNull
	if hasNull {
		issue.Description = "nulls found"
	}
	return issue, nil
}

func diffColumnDefault(schemaName string, t *decl.Table, f *decl.Field, col ColumnRow) *Issue {
	declared := ""
	if f.DefaultValue != "" {
		declared = sqlschema.Literal(f.Type, f.DefaultValue)
	}
	if col.DefaultExpr == declared {
		return nil
	}
	return &Issue{
		Kind:        FieldDefaultValueMismatch,
		Schema:      schemaName,
		Table:       t.Name,
		Field:       f.Name,
		Resolvable:  true,
		Description: fmt.Sprintf("observed default %q, declared %q", col.DefaultExpr, declared),
		Actions:     sqlschema.AlterColumnDefault(schemaName, t.Name, f),
	}
}

func diffTablePass2(ctx context.Context, drv dialect.Driver, schemaName string, t *decl.Table, state *DBState) ([]*Issue, error) {
	var issues []*Issue
	for _, f := range t.Fields {
		if issue := diffPrimaryKey(schemaName, t, f, state); issue != nil {
			issues = append(issues, issue)
		}
		if issue := diffForeignKey(schemaName, t, f, state); issue != nil {
			issues = append(issues, issue)
		}
		uniqueIssue, err := diffUnique(ctx, drv, schemaName, t, f, state)
		if err != nil {
			return nil, err
		}
		if uniqueIssue != nil {
			issues = append(issues, uniqueIssue)
		}
		checkIssue, err := diffCheck(ctx, drv, schemaName, t, f, state)
		if err != nil {
			return nil, err
		}
		if checkIssue != nil {
			issues = append(issues, checkIssue)
		}
		if issue := diffIndex(schemaName, t, f, state); issue != nil {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

func diffPrimaryKey(schemaName string, t *decl.Table, f *decl.Field, state *DBState) *Issue {
	pk, found := state.ConstraintFor(t.Name, 'p', f.Name)
	if f.PrimaryKey {
		if found {
			return nil
		}
		return &Issue{
			Kind: PrimaryKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: sqlschema.AddPrimaryKey(schemaName, t.Name, f.Name),
		}
	}
	if !found {
		return nil
	}
	return &Issue{
		Kind: PrimaryKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: !referencedByForeignKey(state, t.Name, f.Name),
		Actions:    sqlschema.DropConstraint(schemaName, t.Name, pk.Name),
	}
}

func referencedByForeignKey(state *DBState, table, field string) bool {
	for _, c := range state.Constraints {
		if c.Type == 'f' && c.RefTable == table && bracedContains(c.RefColumns, field) {
			return true
		}
	}
	return false
}

func diffForeignKey(schemaName string, t *decl.Table, f *decl.Field, state *DBState) *Issue {
	fk, found := state.ConstraintFor(t.Name, 'f', f.Name)
	if f.References == nil {
		if !found {
			return nil
		}
		return &Issue{
			Kind: ForeignKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: sqlschema.DropConstraint(schemaName, t.Name, fk.Name),
		}
	}
	if !found {
		// Resolvability depends on whether the referenced primary key
		// exists or will be created by an earlier-queued resolvable
		// issue; computed in a second pass once every table's issues
		// are collected (fixupForeignKeyResolvability).
		return &Issue{
			Kind: ForeignKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Actions: sqlschema.AddForeignKey(schemaName, t.Name, f.Name, f.References),
		}
	}
	declOnDelete, declOnUpdate := f.References.OnDelete, f.References.OnUpdate
	if declOnDelete == "" {
		declOnDelete = decl.NoAction
	}
	if declOnUpdate == "" {
		declOnUpdate = decl.NoAction
	}
	if sqlschema.ActionFromCode(fk.OnDelete) == declOnDelete && sqlschema.ActionFromCode(fk.OnUpdate) == declOnUpdate {
		return nil
	}
	return &Issue{
		Kind: ForeignKeyMismatch, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: true, Actions: sqlschema.ReplaceForeignKey(schemaName, t.Name, f.Name, fk.Name, f.References),
	}
}

func diffUnique(ctx context.Context, drv dialect.Driver, schemaName string, t *decl.Table, f *decl.Field, state *DBState) (*Issue, error) {
	uq, found := state.ConstraintFor(t.Name, 'u', f.Name)
	if !f.Unique {
		if !found {
			return nil, nil
		}
		return &Issue{
			Kind: UniqueKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: sqlschema.DropConstraint(schemaName, t.Name, uq.Name),
		}, nil
	}
	if found {
		return nil, nil
	}

	issue := &Issue{
		Kind: UniqueKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: true, Actions: sqlschema.AddUnique(schemaName, t.Name, f.Name),
	}
	if _, hasColumn := state.Column(t.Name, f.Name); hasColumn {
		query := fmt.Sprintf("SELECT count(distinct %[1]s) = count(%[1]s) FROM %[2]s",
			sqlschema.Ident(f.Name), qualifiedTable(schemaName, t.Name))
		isUnique, err := probeBoolean(ctx, drv, query)
		if err != nil {
			return nil, err
		}
		issue.Resolvable = isUnique
		if !isUnique {
			issue.Description = "non-unique values found"
		}
	}
	return issue, nil
}

func diffCheck(ctx context.Context, drv dialect.Driver, schemaName string, t *decl.Table, f *decl.Field, state *DBState) (*Issue, error) {
	chk, found := state.ConstraintFor(t.Name, 'c', f.Name)
	if f.OneOf == nil {
		if !found {
			return nil, nil
		}
		return &Issue{
			Kind: CheckKeyDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: sqlschema.DropConstraint(schemaName, t.Name, chk.Name),
		}, nil
	}
	if !found {
		return &Issue{
			Kind: CheckKeyNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: sqlschema.AddCheck(schemaName, t.Name, f),
		}, nil
	}
	if definitionContainsAll(chk.Definition, f.Type, f.OneOf) {
		return nil, nil
	}

	issue := &Issue{
		Kind: CheckKeyMismatch, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: true, Actions: sqlschema.ReplaceCheck(schemaName, t.Name, f, chk.Name),
	}
	if _, hasColumn := state.Column(t.Name, f.Name); hasColumn {
		values := make([]string, len(f.OneOf))
		for i, v := range f.OneOf {
			values[i] = sqlschema.Literal(f.Type, v)
		}
		query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s NOT IN (%s) LIMIT 1",
			qualifiedTable(schemaName, t.Name), sqlschema.Ident(f.Name), strings.Join(values, ", "))
		hasViolation, err := probeHasRow(ctx, drv, query)
		if err != nil {
			return nil, err
		}
		issue.Resolvable = !hasViolation
		if hasViolation {
			issue.Description = "values outside declared set found"
		}
	}
	return issue, nil
}

func definitionContainsAll(definition string, t decl.FieldType, oneOf []string) bool {
	for _, v := range oneOf {
		if !strings.Contains(definition, sqlschema.Literal(t, v)) {
			return false
		}
	}
	return true
}

func diffIndex(schemaName string, t *decl.Table, f *decl.Field, state *DBState) *Issue {
	eligible := f.Type != decl.Serial && !f.PrimaryKey && !f.Unique && f.References == nil
	if !eligible {
		return nil
	}
	idx, found := state.IndexFor(t.Name, f.Name)
	if f.Index == decl.BTree {
		if found {
			return nil
		}
		return &Issue{
			Kind: BtreeIndexNotFound, Schema: schemaName, Table: t.Name, Field: f.Name,
			Resolvable: true, Actions: sqlschema.AddIndex(schemaName, t.Name, f.Name, decl.BTree),
		}
	}
	if !found {
		return nil
	}
	return &Issue{
		Kind: BtreeIndexDangling, Schema: schemaName, Table: t.Name, Field: f.Name,
		Resolvable: true, Actions: sqlschema.DropIndex(schemaName, idx.Name),
	}
}

// fixupForeignKeyResolvability computes resolvability for every
// foreignKeyNotFound issue only after all tables' issues have been
// collected, so that a reference to a table/field being created in the
// same pass is correctly judged resolvable regardless of declaration
// order (see the design document's note on foreign-key ordering).
func fixupForeignKeyResolvability(issues []*Issue, tables map[string]*decl.Table, state *DBState) {
	for _, issue := range issues {
		if issue.Kind != ForeignKeyNotFound {
			continue
		}
		t := tables[issue.Table]
		f := t.Field(issue.Field)
		issue.Resolvable = referencedPKWillExist(issues, tables, state, f.References.Table, f.References.Field)
	}
}

func referencedPKWillExist(issues []*Issue, tables map[string]*decl.Table, state *DBState, refTable, refField string) bool {
	declTable, ok := tables[refTable]
	if !ok {
		return false
	}
	declField := declTable.Field(refField)
	if declField == nil || !declField.PrimaryKey {
		return false
	}
	if _, exists := state.ConstraintFor(refTable, 'p', refField); exists {
		return true
	}
	for _, issue := range issues {
		if issue.Table != refTable || !issue.Resolvable {
			continue
		}
		if issue.Kind == TableNotFound {
			return true
		}
		if issue.Field == refField && (issue.Kind == PrimaryKeyNotFound || issue.Kind == FieldNotFound) {
			return true
		}
	}
	return false
}

func undeclaredWarnings(tables []*decl.Table, state *DBState) []string {
	declared := make(map[string]map[string]bool, len(tables))
	for _, t := range tables {
		fields := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			fields[f.Name] = true
		}
		declared[t.Name] = fields
	}

	var warnings []string
	warnedTable := make(map[string]bool)
	for _, c := range state.Columns {
		if c.IsDropped {
			continue
		}
		fields, ok := declared[c.Table]
		if !ok {
			if !warnedTable[c.Table] {
				warnings = append(warnings, fmt.Sprintf("undeclared table %q", c.Table))
				warnedTable[c.Table] = true
			}
			continue
		}
		if !fields[c.Column] {
			warnings = append(warnings, fmt.Sprintf("undeclared column %q.%q", c.Table, c.Column))
		}
	}
	return warnings
}

func assembleResult(issues []*Issue, warnings []string) *SyncResult {
	var actions []string
	resolvable := true
	for _, issue := range issues {
		actions = append(actions, issue.Actions...)
		if !issue.Resolvable {
			resolvable = false
		}
	}
	return &SyncResult{
		Issues:     issues,
		Actions:    actions,
		Warnings:   warnings,
		Resolvable: resolvable,
		Fulfilled:  len(issues) == 0,
	}
}

func probeHasRow(ctx context.Context, drv dialect.Driver, query string) (bool, error) {
	var rows dsql.Rows
	if err := drv.Query(ctx, query, []any{}, &rows); err != nil {
		return false, &CatalogError{SQL: query, Err: err}
	}
	defer rows.Close()
	has := rows.Next()
	if err := rows.Err(); err != nil {
		return false, &CatalogError{SQL: query, Err: err}
	}
	return has, nil
}

func probeBoolean(ctx context.Context, drv dialect.Driver, query string) (bool, error) {
	var rows dsql.Rows
	if err := drv.Query(ctx, query, []any{}, &rows); err != nil {
		return false, &CatalogError{SQL: query, Err: err}
	}
	defer rows.Close()
	if !rows.Next() {
		return false, nil
	}
	var v bool
	if err := rows.Scan(&v); err != nil {
		return false, &CatalogError{SQL: query, Err: err}
	}
	return v, nil
}
