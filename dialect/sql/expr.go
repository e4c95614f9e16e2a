package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a typed SQL fragment. Every expression carries a type tag
// that determines its operator surface; the tag is encoded in the Go type
// rather than a runtime field, so callers see Asc/Desc/CastX on every
// expression and the tag-specific operators (Equals, StartsWith, ...) only
// on the concrete type that declares them. Expressions are immutable:
// every combinator returns a fresh value.
type Expression interface {
	// Render returns the expression's SQL fragment. Rendering is pure and
	// repeatable: calling it twice on the same value yields the same
	// string.
	Render() string
}

// expr is the common fragment-holding base every concrete expression type
// embeds. Its methods are promoted (and exported) on every concrete type,
// giving every expression asc/desc/cast regardless of tag.
type expr struct{ frag string }

func (e expr) Render() string { return e.frag }

// Asc renders this expression as an ascending ORDER BY term.
func (e expr) Asc() GenericExpr { return GenericExpr{expr{frag: e.frag + " asc"}} }

// Desc renders this expression as a descending ORDER BY term.
func (e expr) Desc() GenericExpr { return GenericExpr{expr{frag: e.frag + " desc"}} }

// CastInteger renders `cast(<expr> as bigint)`.
func (e expr) CastInteger() IntExpr {
	return IntExpr{expr{frag: fmt.Sprintf("cast(%s as bigint)", e.frag)}}
}

// CastDouble renders `cast(<expr> as double)`.
func (e expr) CastDouble() DoubleExpr {
	return DoubleExpr{expr{frag: fmt.Sprintf("cast(%s as double)", e.frag)}}
}

// CastString renders `cast(<expr> as varchar)`.
func (e expr) CastString() StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("cast(%s as varchar)", e.frag)}}
}

// GenericExpr is the result of asc/desc and carries no further operators.
type GenericExpr struct{ expr }

// BoolExpr is a non-nullable boolean expression: a WHERE/join predicate or
// the result of a comparison operator.
type BoolExpr struct{ expr }

// Not renders `(not <expr>)`.
func (b BoolExpr) Not() BoolExpr {
	return BoolExpr{expr{frag: fmt.Sprintf("(not %s)", b.frag)}}
}

// NullableBoolExpr is a boolean column that may be SQL NULL. Its only
// tag-specific operator is IfNull; chain it to reach the full BoolExpr
// surface.
type NullableBoolExpr struct{ expr }

// IfNull renders `coalesce(<expr>, <lift(v)>)`, collapsing to a non-nullable BoolExpr.
func (b NullableBoolExpr) IfNull(v any) BoolExpr {
	return BoolExpr{expr{frag: fmt.Sprintf("coalesce(%s, %s)", b.frag, liftBool(v))}}
}

// IntExpr is a non-nullable integer (serial or integer) expression.
type IntExpr struct{ expr }

// NullableIntExpr is an integer column that may be SQL NULL.
type NullableIntExpr struct{ expr }

// IfNull renders `coalesce(<expr>, <lift(v)>)`, collapsing to a non-nullable IntExpr.
func (i NullableIntExpr) IfNull(v any) IntExpr {
	return IntExpr{expr{frag: fmt.Sprintf("coalesce(%s, %s)", i.frag, liftNumeric(v))}}
}

// DoubleExpr is a non-nullable double-precision expression.
type DoubleExpr struct{ expr }

// NullableDoubleExpr is a double column that may be SQL NULL.
type NullableDoubleExpr struct{ expr }

// IfNull renders `coalesce(<expr>, <lift(v)>)`, collapsing to a non-nullable DoubleExpr.
func (d NullableDoubleExpr) IfNull(v any) DoubleExpr {
	return DoubleExpr{expr{frag: fmt.Sprintf("coalesce(%s, %s)", d.frag, liftNumeric(v))}}
}

// StringExpr is a non-nullable string expression.
type StringExpr struct{ expr }

// NullableStringExpr is a string column that may be SQL NULL.
type NullableStringExpr struct{ expr }

// IfNull renders `coalesce(<expr>, <lift(v)>)`, collapsing to a non-nullable StringExpr.
func (s NullableStringExpr) IfNull(v any) StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("coalesce(%s, %s)", s.frag, liftString(v))}}
}

// numeric comparisons shared by IntExpr and DoubleExpr.

// Equals renders `(<l> = <r>)`.
func (i IntExpr) Equals(v any) BoolExpr { return numericCompare(i.frag, "=", v) }

// LessThan renders `(<l> < <r>)`.
func (i IntExpr) LessThan(v any) BoolExpr { return numericCompare(i.frag, "<", v) }

// GreaterThan renders `(<l> > <r>)`.
func (i IntExpr) GreaterThan(v any) BoolExpr { return numericCompare(i.frag, ">", v) }

// LessThanOrEqual renders `(<l> <= <r>)`.
func (i IntExpr) LessThanOrEqual(v any) BoolExpr { return numericCompare(i.frag, "<=", v) }

// GreaterThanOrEqual renders `(<l> >= <r>)`.
func (i IntExpr) GreaterThanOrEqual(v any) BoolExpr { return numericCompare(i.frag, ">=", v) }

// Equals renders `(<l> = <r>)`.
func (d DoubleExpr) Equals(v any) BoolExpr { return numericCompare(d.frag, "=", v) }

// LessThan renders `(<l> < <r>)`.
func (d DoubleExpr) LessThan(v any) BoolExpr { return numericCompare(d.frag, "<", v) }

// GreaterThan renders `(<l> > <r>)`.
func (d DoubleExpr) GreaterThan(v any) BoolExpr { return numericCompare(d.frag, ">", v) }

// LessThanOrEqual renders `(<l> <= <r>)`.
func (d DoubleExpr) LessThanOrEqual(v any) BoolExpr { return numericCompare(d.frag, "<=", v) }

// GreaterThanOrEqual renders `(<l> >= <r>)`.
func (d DoubleExpr) GreaterThanOrEqual(v any) BoolExpr { return numericCompare(d.frag, ">=", v) }

func numericCompare(lfrag, op string, v any) BoolExpr {
	return BoolExpr{expr{frag: fmt.Sprintf("(%s %s %s)", lfrag, op, liftNumeric(v))}}
}

// string operators, StringExpr only — Nullable-String must chain IfNull
// first to reach them.

// Equals renders `(<l> = <r>)`.
func (s StringExpr) Equals(v any) BoolExpr {
	return BoolExpr{expr{frag: fmt.Sprintf("(%s = %s)", s.frag, liftString(v))}}
}

// StartsWith renders `(<l> like (<x> || '%'))`.
func (s StringExpr) StartsWith(v any) BoolExpr {
	return BoolExpr{expr{frag: fmt.Sprintf("(%s like (%s || '%%'))", s.frag, liftString(v))}}
}

// EndsWith renders `(<l> like ('%' || <x>))`.
func (s StringExpr) EndsWith(v any) BoolExpr {
	return BoolExpr{expr{frag: fmt.Sprintf("(%s like ('%%' || %s))", s.frag, liftString(v))}}
}

// Upper renders `upper(<expr>)`.
func (s StringExpr) Upper() StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("upper(%s)", s.frag)}}
}

// Lower renders `lower(<expr>)`.
func (s StringExpr) Lower() StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("lower(%s)", s.frag)}}
}

// Trim renders `trim(<expr>)`.
func (s StringExpr) Trim() StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("trim(%s)", s.frag)}}
}

// TrimLeft renders `ltrim(<expr>)`.
func (s StringExpr) TrimLeft() StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("ltrim(%s)", s.frag)}}
}

// TrimRight renders `rtrim(<expr>)`.
func (s StringExpr) TrimRight() StringExpr {
	return StringExpr{expr{frag: fmt.Sprintf("rtrim(%s)", s.frag)}}
}

// liftNumeric lifts an IntExpr/DoubleExpr operand or a Go int/int64/float64
// literal into its SQL fragment. It panics on an incompatible operand type:
// mixing operand kinds is a programming error, caught at construction
// rather than deferred to the database.
func liftNumeric(v any) string {
	switch x := v.(type) {
	case IntExpr:
		return x.frag
	case DoubleExpr:
		return x.frag
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		panic(fmt.Sprintf("sql: invalid numeric operand %T", v))
	}
}

// liftString lifts a StringExpr operand or a Go string literal, quoting
// and escaping the literal case.
func liftString(v any) string {
	switch x := v.(type) {
	case StringExpr:
		return x.frag
	case string:
		return quoteString(x)
	default:
		panic(fmt.Sprintf("sql: invalid string operand %T", v))
	}
}

// liftBool lifts a BoolExpr operand or a Go bool literal.
func liftBool(v any) string {
	switch x := v.(type) {
	case BoolExpr:
		return x.frag
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		panic(fmt.Sprintf("sql: invalid boolean operand %T", v))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
