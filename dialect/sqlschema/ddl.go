package sqlschema

import (
	"fmt"
	"strings"

	"github.com/go-velar/velar/schema"
)

// Ident double-quotes a SQL identifier, doubling any embedded quote.
func Ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(schemaName, table string) string {
	return Ident(schemaName) + "." + Ident(table)
}

// Literal formats a textual default/oneOf literal for the given field
// type: strings are single-quoted (with embedded quotes doubled), numeric
// types render raw.
func Literal(t schema.FieldType, value string) string {
	if t == schema.String {
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
	return value
}

// ForeignKeyName is the naming template for a foreign key constraint.
func ForeignKeyName(table, field, refTable, refField string) string {
	return fmt.Sprintf("%s_%s_%s_%s_fkey", table, field, refTable, refField)
}

// UniqueName is the naming template for a unique constraint.
func UniqueName(table, field string) string {
	return fmt.Sprintf("%s_%s_unique", table, field)
}

// CheckName is the naming template for a check constraint.
func CheckName(table, field string) string {
	return fmt.Sprintf("%s_%s_check", table, field)
}

// IndexName is the naming template for an index, keyed by its type
// (only "btree" is declarable).
func IndexName(table, field string, typ schema.IndexType) string {
	return fmt.Sprintf("%s_%s_%s", table, field, typ)
}

// CreateSchema renders `create schema`.
func CreateSchema(schemaName string) []string {
	return []string{fmt.Sprintf("create schema %s", Ident(schemaName))}
}

// columnDef renders one column definition within a CREATE TABLE. Keys,
// uniqueness, references, and checks are not part of the column
// definition — each gets its own issue and its own DDL.
func columnDef(f *schema.Field) string {
	physical, _ := ToPhysical(f.Type)
	def := Ident(f.Name) + " " + physical
	if f.Type == schema.Serial {
		return def
	}
	if !f.Nullable {
		def += " not null"
	}
	if f.DefaultValue != "" {
		def += " default " + Literal(f.Type, f.DefaultValue)
	}
	return def
}

// CreateTable renders `create table` with one column per declared field,
// in declaration order. Primary keys, foreign keys, unique constraints,
// checks, and indexes are added separately by their own issue's DDL.
func CreateTable(schemaName string, t *schema.Table) []string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = columnDef(f)
	}
	return []string{fmt.Sprintf("create table %s (%s)", qualified(schemaName, t.Name), strings.Join(cols, ", "))}
}

// AddColumn renders `alter table ... add column`.
func AddColumn(schemaName, table string, f *schema.Field) []string {
	return []string{fmt.Sprintf("alter table %s add column %s", qualified(schemaName, table), columnDef(f))}
}

// AlterColumnType renders `alter table ... alter column ... type`.
func AlterColumnType(schemaName, table, field string, to schema.FieldType) []string {
	physical, _ := ToPhysical(to)
	return []string{fmt.Sprintf("alter table %s alter column %s type %s using %s::%s",
		qualified(schemaName, table), Ident(field), physical, Ident(field), physical)}
}

// AlterColumnNullable renders `alter table ... alter column ... set/drop not null`.
func AlterColumnNullable(schemaName, table, field string, nullable bool) []string {
	clause := "set not null"
	if nullable {
		clause = "drop not null"
	}
	return []string{fmt.Sprintf("alter table %s alter column %s %s", qualified(schemaName, table), Ident(field), clause)}
}

// AlterColumnDefault renders `alter table ... alter column ... set/drop default`.
func AlterColumnDefault(schemaName, table string, f *schema.Field) []string {
	if f.DefaultValue == "" {
		return []string{fmt.Sprintf("alter table %s alter column %s drop default", qualified(schemaName, table), Ident(f.Name))}
	}
	return []string{fmt.Sprintf("alter table %s alter column %s set default %s",
		qualified(schemaName, table), Ident(f.Name), Literal(f.Type, f.DefaultValue))}
}

// DropConstraint renders `alter table ... drop constraint`, used for
// dangling primary/foreign/unique/check constraints and as the drop half
// of a mismatch's drop-then-create pair.
func DropConstraint(schemaName, table, constraint string) []string {
	return []string{fmt.Sprintf("alter table %s drop constraint %s", qualified(schemaName, table), Ident(constraint))}
}

// AddPrimaryKey renders `alter table ... add primary key`.
func AddPrimaryKey(schemaName, table, field string) []string {
	return []string{fmt.Sprintf("alter table %s add primary key (%s)", qualified(schemaName, table), Ident(field))}
}

// AddForeignKey renders `alter table ... add constraint ... foreign key ... references ...`.
func AddForeignKey(schemaName, table, field string, ref *schema.FieldReference) []string {
	name := ForeignKeyName(table, field, ref.Table, ref.Field)
	stmt := fmt.Sprintf("alter table %s add constraint %s foreign key (%s) references %s (%s)",
		qualified(schemaName, table), Ident(name), Ident(field), qualified(schemaName, ref.Table), Ident(ref.Field))
	if ref.OnDelete != "" {
		stmt += " on delete " + ActionSQL(ref.OnDelete)
	}
	if ref.OnUpdate != "" {
		stmt += " on update " + ActionSQL(ref.OnUpdate)
	}
	return []string{stmt}
}

// ReplaceForeignKey renders the drop-then-create pair for a foreign key
// whose cascade actions no longer match the declared schema.
func ReplaceForeignKey(schemaName, table, field, existingConstraint string, ref *schema.FieldReference) []string {
	return append(DropConstraint(schemaName, table, existingConstraint), AddForeignKey(schemaName, table, field, ref)...)
}

// AddUnique renders `alter table ... add constraint ... unique`.
func AddUnique(schemaName, table, field string) []string {
	name := UniqueName(table, field)
	return []string{fmt.Sprintf("alter table %s add constraint %s unique (%s)", qualified(schemaName, table), Ident(name), Ident(field))}
}

// AddCheck renders `alter table ... add constraint ... check ... in (...)`.
func AddCheck(schemaName, table string, f *schema.Field) []string {
	name := CheckName(table, f.Name)
	values := make([]string, len(f.OneOf))
	for i, v := range f.OneOf {
		values[i] = Literal(f.Type, v)
	}
	return []string{fmt.Sprintf("alter table %s add constraint %s check (%s in (%s))",
		qualified(schemaName, table), Ident(name), Ident(f.Name), strings.Join(values, ", "))}
}

// ReplaceCheck renders the drop-then-create pair for a check constraint
// whose declared literal set no longer matches the stored definition.
func ReplaceCheck(schemaName, table string, f *schema.Field, existingConstraint string) []string {
	return append(DropConstraint(schemaName, table, existingConstraint), AddCheck(schemaName, table, f)...)
}

// AddIndex renders `create index ... using btree`.
func AddIndex(schemaName, table, field string, typ schema.IndexType) []string {
	name := IndexName(table, field, typ)
	return []string{fmt.Sprintf("create index %s on %s using %s (%s)", Ident(name), qualified(schemaName, table), typ, Ident(field))}
}

// DropIndex renders `drop index`.
func DropIndex(schemaName, indexName string) []string {
	return []string{fmt.Sprintf("drop index %s", qualified(schemaName, indexName))}
}
