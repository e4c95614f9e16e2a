package sqlschema

import (
	"testing"

	"github.com/go-velar/velar/schema"
	"github.com/stretchr/testify/assert"
)

func TestIdent_QuotesAndDoublesEmbeddedQuote(t *testing.T) {
	assert.Equal(t, `"users"`, Ident("users"))
	assert.Equal(t, `"weird""name"`, Ident(`weird"name`))
}

func TestLiteral_StringVsNumeric(t *testing.T) {
	assert.Equal(t, "'pending'", Literal(schema.String, "pending"))
	assert.Equal(t, "'it''s'", Literal(schema.String, "it's"))
	assert.Equal(t, "18", Literal(schema.Integer, "18"))
	assert.Equal(t, "1.5", Literal(schema.Double, "1.5"))
}

func TestNamingTemplates(t *testing.T) {
	assert.Equal(t, "orders_user_id_users_id_fkey", ForeignKeyName("orders", "user_id", "users", "id"))
	assert.Equal(t, "users_email_unique", UniqueName("users", "email"))
	assert.Equal(t, "orders_status_check", CheckName("orders", "status"))
	assert.Equal(t, "users_age_btree", IndexName("users", "age", schema.BTree))
}

func TestCreateSchema(t *testing.T) {
	assert.Equal(t, []string{`create schema "app"`}, CreateSchema("app"))
}

func TestCreateTable(t *testing.T) {
	tbl := &schema.Table{
		Name: "users",
		Fields: []*schema.Field{
			{Name: "id", Type: schema.Serial},
			{Name: "email", Type: schema.String, DefaultValue: "unset"},
			{Name: "age", Type: schema.Integer, Nullable: true},
		},
	}
	stmts := CreateTable("app", tbl)
	require1 := stmts[0]
	assert.Contains(t, require1, `create table "app"."users"`)
	assert.Contains(t, require1, `"id" bigserial`)
	assert.Contains(t, require1, `"email" varchar not null default 'unset'`)
	assert.Contains(t, require1, `"age" bigint`)
	assert.NotContains(t, require1, `"age" bigint not null`)
}

func TestAddColumn(t *testing.T) {
	f := &schema.Field{Name: "nickname", Type: schema.String, Nullable: true}
	stmts := AddColumn("app", "users", f)
	assert.Equal(t, []string{`alter table "app"."users" add column "nickname" varchar`}, stmts)
}

func TestAlterColumnType(t *testing.T) {
	stmts := AlterColumnType("app", "users", "age", schema.Double)
	assert.Equal(t, []string{`alter table "app"."users" alter column "age" type float8 using "age"::float8`}, stmts)
}

func TestAlterColumnNullable(t *testing.T) {
	assert.Equal(t, []string{`alter table "app"."users" alter column "email" set not null`},
		AlterColumnNullable("app", "users", "email", false))
	assert.Equal(t, []string{`alter table "app"."users" alter column "email" drop not null`},
		AlterColumnNullable("app", "users", "email", true))
}

func TestAlterColumnDefault(t *testing.T) {
	f := &schema.Field{Name: "status", Type: schema.String, DefaultValue: "pending"}
	assert.Equal(t, []string{`alter table "app"."users" alter column "status" set default 'pending'`},
		AlterColumnDefault("app", "users", f))

	noDefault := &schema.Field{Name: "status", Type: schema.String}
	assert.Equal(t, []string{`alter table "app"."users" alter column "status" drop default`},
		AlterColumnDefault("app", "users", noDefault))
}

func TestDropConstraint(t *testing.T) {
	assert.Equal(t, []string{`alter table "app"."users" drop constraint "users_pkey"`},
		DropConstraint("app", "users", "users_pkey"))
}

func TestAddPrimaryKey(t *testing.T) {
	assert.Equal(t, []string{`alter table "app"."users" add primary key ("id")`},
		AddPrimaryKey("app", "users", "id"))
}

func TestAddForeignKey(t *testing.T) {
	ref := &schema.FieldReference{Table: "users", Field: "id", OnDelete: schema.Cascade, OnUpdate: schema.Restrict}
	stmts := AddForeignKey("app", "orders", "user_id", ref)
	want := `alter table "app"."orders" add constraint "orders_user_id_users_id_fkey" foreign key ("user_id") references "app"."users" ("id") on delete CASCADE on update RESTRICT`
	assert.Equal(t, []string{want}, stmts)
}

func TestReplaceForeignKey(t *testing.T) {
	ref := &schema.FieldReference{Table: "users", Field: "id", OnDelete: schema.Cascade}
	stmts := ReplaceForeignKey("app", "orders", "user_id", "old_fkey", ref)
	require2 := len(stmts)
	assert.Equal(t, 2, require2)
	assert.Contains(t, stmts[0], "drop constraint")
	assert.Contains(t, stmts[1], "add constraint")
}

func TestAddUnique(t *testing.T) {
	assert.Equal(t, []string{`alter table "app"."users" add constraint "users_email_unique" unique ("email")`},
		AddUnique("app", "users", "email"))
}

func TestAddCheck(t *testing.T) {
	f := &schema.Field{Name: "status", Type: schema.String, OneOf: []string{"a", "b"}}
	stmts := AddCheck("app", "users", f)
	assert.Equal(t, []string{`alter table "app"."users" add constraint "users_status_check" check ("status" in ('a', 'b'))`}, stmts)
}

func TestReplaceCheck(t *testing.T) {
	f := &schema.Field{Name: "status", Type: schema.String, OneOf: []string{"a", "b", "c"}}
	stmts := ReplaceCheck("app", "users", f, "old_check")
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "drop constraint")
	assert.Contains(t, stmts[1], "add constraint")
}

func TestAddIndex(t *testing.T) {
	assert.Equal(t, []string{`create index "users_age_btree" on "app"."users" using btree ("age")`},
		AddIndex("app", "users", "age", schema.BTree))
}

func TestDropIndex(t *testing.T) {
	assert.Equal(t, []string{`drop index "app"."users_age_btree"`}, DropIndex("app", "users_age_btree"))
}
