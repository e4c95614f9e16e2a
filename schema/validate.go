package schema

import (
	"errors"

	"golang.org/x/text/cases"
)

// Validate checks every declaration invariant on tables before any of it
// is compared against a live database: primary-key cardinality and
// nullability, the serial field's implicit not-null/unique modifiers,
// reference target existence/primary-keyness/type-class equality, oneOf
// non-emptiness, and index restrictions. It reports every violation it
// finds, not just the first, joined with errors.Join; a nil return means
// the schema may be synced.
func Validate(tables []*Table) error {
	var errs []error

	byName := make(map[string]*Table, len(tables))
	fold := cases.Fold()
	foldedTables := make(map[string]string, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
		folded := fold.String(t.Name)
		if other, ok := foldedTables[folded]; ok {
			if other == t.Name {
				errs = append(errs, newDeclErr(t.Name, "", "duplicate table name"))
			} else {
				errs = append(errs, newDeclErr(t.Name, "", "duplicate table name (collides with %q)", other))
			}
			continue
		}
		foldedTables[folded] = t.Name
	}

	for _, t := range tables {
		errs = append(errs, validateTable(t, byName, fold)...)
	}

	return errors.Join(errs...)
}

func validateTable(t *Table, byName map[string]*Table, fold cases.Caser) []error {
	var errs []error

	seenField := make(map[string]string, len(t.Fields))
	var primaryKeys int

	for _, f := range t.Fields {
		folded := fold.String(f.Name)
		if other, ok := seenField[folded]; ok {
			if other == f.Name {
				errs = append(errs, newDeclErr(t.Name, f.Name, "duplicate field name"))
			} else {
				errs = append(errs, newDeclErr(t.Name, f.Name, "duplicate field name (collides with %q)", other))
			}
		} else {
			seenField[folded] = f.Name
		}

		if f.PrimaryKey {
			primaryKeys++
			if f.Nullable {
				errs = append(errs, newDeclErr(t.Name, f.Name, "primary key field must not be nullable"))
			}
		}

		if f.Type == Serial {
			if f.Nullable {
				errs = append(errs, newDeclErr(t.Name, f.Name, "serial field must not declare nullable"))
			}
			if f.Unique {
				errs = append(errs, newDeclErr(t.Name, f.Name, "serial field must not declare unique"))
			}
		}

		if f.References != nil {
			errs = append(errs, validateReference(t, f, byName)...)
		}

		if f.OneOf != nil && len(f.OneOf) == 0 {
			errs = append(errs, newDeclErr(t.Name, f.Name, "oneOf must be non-empty when present"))
		}

		if f.Index != "" {
			switch {
			case f.Type == Serial:
				errs = append(errs, newDeclErr(t.Name, f.Name, "index is forbidden on a serial field"))
			case f.References != nil:
				errs = append(errs, newDeclErr(t.Name, f.Name, "index is forbidden on a referencing field"))
			case f.Unique:
				errs = append(errs, newDeclErr(t.Name, f.Name, "index is forbidden on a unique field"))
			case f.PrimaryKey:
				errs = append(errs, newDeclErr(t.Name, f.Name, "index is forbidden on a primary key field"))
			}
		}
	}

	if primaryKeys > 1 {
		errs = append(errs, newDeclErr(t.Name, "", "at most one primary key field is allowed, found %d", primaryKeys))
	}

	return errs
}

func validateReference(t *Table, f *Field, byName map[string]*Table) []error {
	ref := f.References
	target, ok := byName[ref.Table]
	if !ok {
		return []error{newDeclErr(t.Name, f.Name, "references unknown table %q", ref.Table)}
	}
	targetField := target.Field(ref.Field)
	if targetField == nil {
		return []error{newDeclErr(t.Name, f.Name, "references unknown field %q.%q", ref.Table, ref.Field)}
	}
	if !targetField.PrimaryKey {
		return []error{newDeclErr(t.Name, f.Name, "references %q.%q, which is not a primary key", ref.Table, ref.Field)}
	}
	if Class(f.Type) != Class(targetField.Type) {
		return []error{newDeclErr(t.Name, f.Name, "references %q.%q of a different type class (%s vs %s)",
			ref.Table, ref.Field, Class(f.Type), Class(targetField.Type))}
	}
	return nil
}

// Violations unwraps an error returned by Validate back into the
// individual *DeclarationError values it joined, so a caller can report
// every problem instead of just the first one errors.Is/As would surface.
func Violations(err error) []*DeclarationError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*DeclarationError
		for _, e := range joined.Unwrap() {
			out = append(out, Violations(e)...)
		}
		return out
	}
	if de, ok := err.(*DeclarationError); ok {
		return []*DeclarationError{de}
	}
	return nil
}
