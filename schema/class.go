package schema

// Class groups logical field types into the coarse families C6 uses to
// decide whether a reference crosses a type boundary: a serial column may
// point at (or be pointed at by) an integer column, but never at a double
// or string one.
const (
	classInteger = "integer"
	classDouble  = "double"
	classText    = "text"
)

// Class reports the type class of a logical field type.
func Class(t FieldType) string {
	switch t {
	case Serial, Integer:
		return classInteger
	case Double:
		return classDouble
	case String:
		return classText
	default:
		return ""
	}
}
