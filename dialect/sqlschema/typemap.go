// Package sqlschema maps declared logical field types to PostgreSQL
// physical column types and renders the DDL statements the synchronizer's
// diff engine emits.
package sqlschema

import (
	"strings"

	"ariga.io/atlas/sql/postgres"

	"github.com/go-velar/velar/schema"
)

// typeEntry is one row of the logical/physical type table. The physical
// name is a canonical string drawn from ariga.io/atlas/sql/postgres's
// exported type constants; aliases lists every spelling toLogical accepts
// for the same physical type, matched case-insensitively.
type typeEntry struct {
	logical    schema.FieldType
	physical   string
	aliases    []string
	convertsTo []schema.FieldType
}

var typeTable = []typeEntry{
	{
		logical:    schema.Serial,
		physical:   postgres.TypeBigSerial,
		aliases:    []string{postgres.TypeBigSerial, postgres.TypeSerial8},
		convertsTo: []schema.FieldType{schema.Serial},
	},
	{
		logical:    schema.Integer,
		physical:   postgres.TypeBigInt,
		aliases:    []string{postgres.TypeBigInt, postgres.TypeInt8},
		convertsTo: []schema.FieldType{schema.Integer, schema.Double, schema.String},
	},
	{
		logical:    schema.Double,
		physical:   postgres.TypeFloat8,
		aliases:    []string{postgres.TypeDouble, postgres.TypeFloat8},
		convertsTo: []schema.FieldType{schema.Double, schema.String},
	},
	{
		logical:    schema.String,
		physical:   postgres.TypeVarChar,
		aliases:    []string{postgres.TypeCharVar, postgres.TypeVarChar, postgres.TypeCharacter, postgres.TypeChar},
		convertsTo: []schema.FieldType{schema.String},
	},
}

func entryFor(t schema.FieldType) (typeEntry, bool) {
	for _, e := range typeTable {
		if e.logical == t {
			return e, true
		}
	}
	return typeEntry{}, false
}

// ToLogical maps a physical PostgreSQL type name to its logical field
// type, matching any of its declared aliases case-insensitively.
func ToLogical(physical string) (schema.FieldType, bool) {
	for _, e := range typeTable {
		for _, alias := range e.aliases {
			if strings.EqualFold(alias, physical) {
				return e.logical, true
			}
		}
	}
	return "", false
}

// ToPhysical maps a logical field type to its canonical physical column
// type.
func ToPhysical(t schema.FieldType) (string, bool) {
	e, ok := entryFor(t)
	if !ok {
		return "", false
	}
	return e.physical, true
}

// CanConvert reports whether a column observed as logical type from can be
// altered in place to declared type to, per the type table's convertsTo
// column.
func CanConvert(from, to schema.FieldType) bool {
	e, ok := entryFor(from)
	if !ok {
		return false
	}
	for _, t := range e.convertsTo {
		if t == to {
			return true
		}
	}
	return false
}

// IsSerialIntegerMatch reports the one special case the diff engine must
// not treat as a type mismatch: a declared serial field against a column
// already observed as plain integer (a serial column reads back from the
// catalog as its backing integer type, never as "serial").
func IsSerialIntegerMatch(declared schema.FieldType, observedPhysical string) bool {
	if declared != schema.Serial {
		return false
	}
	observed, ok := ToLogical(observedPhysical)
	return ok && observed == schema.Integer
}
