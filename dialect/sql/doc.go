// Package sql provides a typed SELECT query builder, the expression
// algebra it composes over, and a database/sql-backed Driver
// implementation.
//
// # Expressions
//
// Every column and literal is an Expression tagged by Go type: BoolExpr,
// IntExpr, DoubleExpr, StringExpr, and a Nullable variant of each. The tag
// determines the operator surface — StringExpr gets StartsWith/Upper/Trim,
// IntExpr and DoubleExpr get Equals/LessThan/GreaterThan, every expression
// gets Asc/Desc/CastInteger/CastDouble/CastString. Nullable variants only
// expose IfNull, which collapses them to the non-nullable type:
//
//	t1.Field1.IfNull("").StartsWith("blablabla")
//
// # Query builder
//
// From seeds a Scope (alias -> field name -> Expression); the chain grows
// through From -> Join* -> Select -> Where? -> OrderBy? -> Exec, with each
// stage's legal next calls fixed by the Go type it returns:
//
//	rows, err := sql.From(t1, "t1").
//		Join(t2, "t2", func(s sql.Scope) sql.BoolExpr {
//			return s["t1"]["field2"].(sql.IntExpr).Equals(s["t2"]["field4"])
//		}).
//		Select(func(s sql.Scope) []sql.Projection {
//			return []sql.Projection{
//				sql.Col("name", s["t1"]["field1"]),
//				sql.Col("age", s["t2"]["field4"]),
//			}
//		}).
//		Where(func(s sql.Scope) sql.BoolExpr {
//			return s["t1"]["field1"].(sql.NullableStringExpr).IfNull("").StartsWith("blablabla")
//		}).
//		OrderBy(func(s sql.Scope) []sql.Expression {
//			return []sql.Expression{s["t1"]["field1"].(sql.NullableStringExpr).Desc(), s["t1"]["field2"]}
//		}).
//		Exec(ctx, drv, &sql.Page{Size: 20, Index: 0})
//
// Exec renders the SQL, sends it through the given dialect.Driver, and
// decodes rows by the tag of each projected expression (bool/int64/
// float64/string, nil when the column is SQL NULL).
//
// # Driver
//
// Open wraps database/sql.Open with a dialect.Driver implementation.
// WithGUC/WithIntGUC queue Postgres session settings on a context for Conn
// to SET before the next statement and, on a pooled connection, RESET once
// that statement's rows are done with it (inside a transaction no RESET is
// issued). InstrumentedDriver
// (stats.go) wraps a Driver to count queries, time them, and report slow
// ones through an optional hook; LoggingDriver wraps a Driver to log every
// statement and transaction event it runs.
package sql
