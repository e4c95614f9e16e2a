package schema

import "fmt"

// DeclarationError reports one violation of the invariants Validate
// enforces on a declared schema. It always names the table and, when the
// violation is field-scoped, the field.
type DeclarationError struct {
	Table   string
	Field   string
	Message string
}

func (e *DeclarationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("schema: %s.%s: %s", e.Table, e.Field, e.Message)
}

func newDeclErr(table, field, format string, args ...any) *DeclarationError {
	return &DeclarationError{Table: table, Field: field, Message: fmt.Sprintf(format, args...)}
}
