// Package schema declares the data model shared by the query builder and
// the schema synchronizer: tables, fields, and the reference/constraint
// metadata the synchronizer diffs against a live catalog.
//
// Schemas are built as plain Go values, not generated from a DSL:
//
//	users := &schema.Table{
//		Name: "users",
//		Fields: []*schema.Field{
//			{Name: "id", Type: schema.Serial, PrimaryKey: true},
//			{Name: "email", Type: schema.String, Unique: true},
//		},
//	}
//
// Validate reports every invariant violation in one pass; Sync (package
// dialect/sql/schema) then compares the declared tables against a live
// database.
package schema

// FieldType is the logical type of a declared field. It is distinct from
// the physical column type a database stores it as; dialect/sqlschema maps
// between the two.
type FieldType string

const (
	Serial  FieldType = "serial"
	Integer FieldType = "integer"
	Double  FieldType = "double"
	String  FieldType = "string"
)

// ReferenceAction is the behavior attached to a foreign key's ON UPDATE or
// ON DELETE clause.
type ReferenceAction string

const (
	NoAction   ReferenceAction = "no action"
	Restrict   ReferenceAction = "restrict"
	Cascade    ReferenceAction = "cascade"
	SetDefault ReferenceAction = "set default"
)

// IndexType names the kind of index a field requests. btree is the only
// kind this module declares or diffs.
type IndexType string

const (
	BTree IndexType = "btree"
)

// FieldReference declares a field as a foreign key to a primary-key field
// of another declared table.
type FieldReference struct {
	Table    string
	Field    string
	OnDelete ReferenceAction
	OnUpdate ReferenceAction
}

// Field is one column of a declared table.
type Field struct {
	Name         string
	Type         FieldType
	Nullable     bool
	Unique       bool
	DefaultValue string
	PrimaryKey   bool
	References   *FieldReference
	// OneOf, when non-nil, restricts the field to the given literal values
	// via a CHECK constraint. It must be non-empty if set.
	OneOf []string
	Index IndexType
}

// Table is a declared relation: a name and an ordered list of fields.
// Field order is preserved through validation, diffing, and rendering.
type Table struct {
	Name   string
	Fields []*Field
}

// Field looks up a field by name, or returns nil.
func (t *Table) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
