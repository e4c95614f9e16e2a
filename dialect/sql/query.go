package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-velar/velar/dialect"
	"github.com/go-velar/velar/schema"
)

// Scope is the set of alias-qualified column expressions visible at a
// builder stage: alias -> fieldName -> Expression. From and Join extend it;
// Select/Where/OrderBy read from it but never mutate it.
type Scope map[string]map[string]Expression

// Row is one decoded result row, keyed by the projection label passed to
// Select. A value is nil when the underlying column was SQL NULL.
type Row map[string]any

// Projection pairs a result-row label with the expression that fills it.
// Select takes an ordered slice of these rather than a Go map so that
// rendering is deterministic (map iteration order is not) and so the
// projection order in the rendered SQL matches the order the caller wrote.
type Projection struct {
	Label string
	Expr  Expression
}

// Col builds one Projection.
func Col(label string, e Expression) Projection { return Projection{Label: label, Expr: e} }

// Page requests LIMIT/OFFSET paging from Exec. A nil *Page means no limit
// is appended.
type Page struct {
	Size  int
	Index int
}

type joinClause struct {
	table string
	alias string
	on    BoolExpr
}

type queryCtx struct {
	fromTable string
	fromAlias string
	joins     []joinClause
	proj      []Projection
	where     *BoolExpr
	orderBy   []Expression
	scope     Scope
}

func columnExpr(alias string, f *schema.Field) Expression {
	frag := fmt.Sprintf("%s.%q", alias, f.Name)
	switch f.Type {
	case schema.Serial, schema.Integer:
		if f.Nullable {
			return NullableIntExpr{expr{frag: frag}}
		}
		return IntExpr{expr{frag: frag}}
	case schema.Double:
		if f.Nullable {
			return NullableDoubleExpr{expr{frag: frag}}
		}
		return DoubleExpr{expr{frag: frag}}
	case schema.String:
		if f.Nullable {
			return NullableStringExpr{expr{frag: frag}}
		}
		return StringExpr{expr{frag: frag}}
	default:
		return GenericExpr{expr{frag: frag}}
	}
}

func aliasScope(table *schema.Table, alias string) map[string]Expression {
	fields := make(map[string]Expression, len(table.Fields))
	for _, f := range table.Fields {
		fields[f.Name] = columnExpr(alias, f)
	}
	return fields
}

// FromBuilder is the stage reached after From. It accepts further Join
// calls or a terminal Select.
type FromBuilder struct{ ctx *queryCtx }

// From seeds the scope with table's fields qualified by alias and starts a
// new query.
func From(table *schema.Table, alias string) *FromBuilder {
	ctx := &queryCtx{
		fromTable: table.Name,
		fromAlias: alias,
		scope:     Scope{alias: aliasScope(table, alias)},
	}
	return &FromBuilder{ctx: ctx}
}

// Join extends the scope with table under alias, then evaluates on against
// the extended scope to obtain the join predicate. Join may be chained.
func (b *FromBuilder) Join(table *schema.Table, alias string, on func(Scope) BoolExpr) *FromBuilder {
	b.ctx.scope[alias] = aliasScope(table, alias)
	expr := on(b.ctx.scope)
	b.ctx.joins = append(b.ctx.joins, joinClause{table: table.Name, alias: alias, on: expr})
	return b
}

// Select evaluates sel against the current scope to fix the result-row
// shape and advances the chain to the point where Where/OrderBy/Exec
// become legal.
func (b *FromBuilder) Select(sel func(Scope) []Projection) *SelectedBuilder {
	b.ctx.proj = sel(b.ctx.scope)
	return &SelectedBuilder{ctx: b.ctx}
}

// SelectedBuilder is the stage reached after Select.
type SelectedBuilder struct{ ctx *queryCtx }

// Where stores f(scope) as the query's filter. Where is offered only on
// *SelectedBuilder, so a single fluent chain cannot call it twice; calling
// Where again on a retained *SelectedBuilder replaces the earlier filter,
// since every stage of one query shares the same context.
func (b *SelectedBuilder) Where(f func(Scope) BoolExpr) *FilteredBuilder {
	w := f(b.ctx.scope)
	b.ctx.where = &w
	return &FilteredBuilder{ctx: b.ctx}
}

// OrderBy stores f(scope) as the ORDER BY list, preserving the order the
// caller returned it in. Use Desc() on an expression for descending order;
// bare expressions render ascending.
func (b *SelectedBuilder) OrderBy(f func(Scope) []Expression) *OrderedBuilder {
	b.ctx.orderBy = f(b.ctx.scope)
	return &OrderedBuilder{ctx: b.ctx}
}

// Exec renders the query with neither a WHERE nor an ORDER BY clause and
// runs it.
func (b *SelectedBuilder) Exec(ctx context.Context, drv dialect.Driver, page *Page) ([]Row, error) {
	return execQuery(ctx, drv, b.ctx, page)
}

// FilteredBuilder is the stage reached after Where.
type FilteredBuilder struct{ ctx *queryCtx }

// OrderBy behaves as SelectedBuilder.OrderBy.
func (b *FilteredBuilder) OrderBy(f func(Scope) []Expression) *OrderedBuilder {
	b.ctx.orderBy = f(b.ctx.scope)
	return &OrderedBuilder{ctx: b.ctx}
}

// Exec renders and runs the query built so far.
func (b *FilteredBuilder) Exec(ctx context.Context, drv dialect.Driver, page *Page) ([]Row, error) {
	return execQuery(ctx, drv, b.ctx, page)
}

// OrderedBuilder is the terminal stage reached after OrderBy.
type OrderedBuilder struct{ ctx *queryCtx }

// Exec renders and runs the fully built query.
func (b *OrderedBuilder) Exec(ctx context.Context, drv dialect.Driver, page *Page) ([]Row, error) {
	return execQuery(ctx, drv, b.ctx, page)
}

// Render returns the SQL this query would send to the driver, without
// running it. Exposed so callers and tests can inspect the rendered SQL
// without a driver round trip.
func (b *SelectedBuilder) Render(page *Page) string { return render(b.ctx, page) }
func (b *FilteredBuilder) Render(page *Page) string { return render(b.ctx, page) }
func (b *OrderedBuilder) Render(page *Page) string  { return render(b.ctx, page) }

func render(q *queryCtx, page *Page) string {
	var sb strings.Builder

	sb.WriteString("select ")
	for i, p := range q.proj {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s as %q", p.Expr.Render(), p.Label)
	}

	fmt.Fprintf(&sb, " from %q %s", q.fromTable, q.fromAlias)

	for _, j := range q.joins {
		fmt.Fprintf(&sb, " join %q %s on %s", j.table, j.alias, j.on.Render())
	}

	if q.where != nil {
		fmt.Fprintf(&sb, " where %s", q.where.Render())
	}

	if len(q.orderBy) > 0 {
		sb.WriteString(" order by ")
		for i, e := range q.orderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.Render())
		}
	}

	if page != nil {
		fmt.Fprintf(&sb, " limit %d offset %d", page.Size, page.Index*page.Size)
	}

	return sb.String()
}

func execQuery(ctx context.Context, drv dialect.Driver, q *queryCtx, page *Page) ([]Row, error) {
	query := render(q, page)

	var rows Rows
	if err := drv.Query(ctx, query, []any{}, &rows); err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	defer rows.Close()

	result := make([]Row, 0)
	for rows.Next() {
		row, err := decodeRow(q.proj, rows)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: exec: decode row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return result, nil
}

func decodeRow(proj []Projection, scanner ColumnScanner) (Row, error) {
	dests := make([]any, len(proj))
	for i, p := range proj {
		switch p.Expr.(type) {
		case BoolExpr, NullableBoolExpr:
			dests[i] = new(sql.NullBool)
		case IntExpr, NullableIntExpr:
			dests[i] = new(sql.NullInt64)
		case DoubleExpr, NullableDoubleExpr:
			dests[i] = new(sql.NullFloat64)
		default:
			dests[i] = new(sql.NullString)
		}
	}
	if err := scanner.Scan(dests...); err != nil {
		return nil, err
	}
	row := make(Row, len(proj))
	for i, p := range proj {
		switch d := dests[i].(type) {
		case *sql.NullBool:
			row[p.Label] = nullableValue(d.Valid, d.Bool)
		case *sql.NullInt64:
			row[p.Label] = nullableValue(d.Valid, d.Int64)
		case *sql.NullFloat64:
			row[p.Label] = nullableValue(d.Valid, d.Float64)
		case *sql.NullString:
			row[p.Label] = nullableValue(d.Valid, d.String)
		}
	}
	return row, nil
}

func nullableValue[T any](valid bool, v T) any {
	if !valid {
		return nil
	}
	return v
}
