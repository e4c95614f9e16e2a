package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func col(alias, name string) expr { return expr{frag: alias + `.` + `"` + name + `"`} }

func TestExpr_RenderIsPure(t *testing.T) {
	e := IntExpr{col("t1", "age")}
	assert.Equal(t, e.Render(), e.Render())
	assert.Equal(t, `t1."age"`, e.Render())
}

func TestExpr_AscDesc(t *testing.T) {
	e := StringExpr{col("t1", "name")}
	assert.Equal(t, `t1."name" asc`, e.Asc().Render())
	assert.Equal(t, `t1."name" desc`, e.Desc().Render())
}

func TestExpr_Cast(t *testing.T) {
	e := StringExpr{col("t1", "name")}
	assert.Equal(t, `cast(t1."name" as bigint)`, e.CastInteger().Render())
	assert.Equal(t, `cast(t1."name" as double)`, e.CastDouble().Render())
	assert.Equal(t, `cast(t1."name" as varchar)`, e.CastString().Render())
}

func TestBoolExpr_Not(t *testing.T) {
	b := BoolExpr{col("t1", "active")}
	assert.Equal(t, `(not t1."active")`, b.Not().Render())
}

func TestNullableExpr_IfNull(t *testing.T) {
	nb := NullableBoolExpr{col("t1", "active")}
	assert.Equal(t, `coalesce(t1."active", true)`, nb.IfNull(true).Render())

	ni := NullableIntExpr{col("t1", "age")}
	assert.Equal(t, `coalesce(t1."age", 0)`, ni.IfNull(0).Render())

	nd := NullableDoubleExpr{col("t1", "score")}
	assert.Equal(t, `coalesce(t1."score", 1.5)`, nd.IfNull(1.5).Render())

	ns := NullableStringExpr{col("t1", "name")}
	assert.Equal(t, `coalesce(t1."name", '')`, ns.IfNull("").Render())
	assert.Equal(t, `coalesce(t1."name", 'it''s')`, ns.IfNull("it's").Render())
}

func TestIntExpr_Comparisons(t *testing.T) {
	i := IntExpr{col("t1", "age")}
	assert.Equal(t, `(t1."age" = 18)`, i.Equals(18).Render())
	assert.Equal(t, `(t1."age" < 18)`, i.LessThan(18).Render())
	assert.Equal(t, `(t1."age" > 18)`, i.GreaterThan(18).Render())
	assert.Equal(t, `(t1."age" <= 18)`, i.LessThanOrEqual(18).Render())
	assert.Equal(t, `(t1."age" >= 18)`, i.GreaterThanOrEqual(18).Render())

	other := IntExpr{col("t2", "max_age")}
	assert.Equal(t, `(t1."age" = t2."max_age")`, i.Equals(other).Render())
}

func TestDoubleExpr_Comparisons(t *testing.T) {
	d := DoubleExpr{col("t1", "score")}
	assert.Equal(t, `(t1."score" = 1.5)`, d.Equals(1.5).Render())
	assert.Equal(t, `(t1."score" < 1.5)`, d.LessThan(1.5).Render())
	assert.Equal(t, `(t1."score" > 1.5)`, d.GreaterThan(1.5).Render())
}

func TestStringExpr_Operators(t *testing.T) {
	s := StringExpr{col("t1", "name")}
	assert.Equal(t, `(t1."name" = 'bob')`, s.Equals("bob").Render())
	assert.Equal(t, `(t1."name" like ('bob' || '%'))`, s.StartsWith("bob").Render())
	assert.Equal(t, `(t1."name" like ('%' || 'bob'))`, s.EndsWith("bob").Render())
	assert.Equal(t, `upper(t1."name")`, s.Upper().Render())
	assert.Equal(t, `lower(t1."name")`, s.Lower().Render())
	assert.Equal(t, `trim(t1."name")`, s.Trim().Render())
	assert.Equal(t, `ltrim(t1."name")`, s.TrimLeft().Render())
	assert.Equal(t, `rtrim(t1."name")`, s.TrimRight().Render())
}

func TestLiftNumeric_PanicsOnIncompatibleOperand(t *testing.T) {
	i := IntExpr{col("t1", "age")}
	assert.Panics(t, func() { i.Equals("not a number") })
}

func TestLiftString_PanicsOnIncompatibleOperand(t *testing.T) {
	s := StringExpr{col("t1", "name")}
	assert.Panics(t, func() { s.Equals(42) })
}

func TestLiftBool_PanicsOnIncompatibleOperand(t *testing.T) {
	nb := NullableBoolExpr{col("t1", "active")}
	assert.Panics(t, func() { nb.IfNull("nope") })
}

func TestQuoteString_EscapesEmbeddedQuotes(t *testing.T) {
	assert.Equal(t, `'it''s'`, quoteString("it's"))
}
