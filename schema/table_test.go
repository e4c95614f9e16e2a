package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Field(t *testing.T) {
	users := &Table{
		Name: "users",
		Fields: []*Field{
			{Name: "id", Type: Serial, PrimaryKey: true},
			{Name: "email", Type: String, Unique: true},
		},
	}

	f := users.Field("email")
	assert.NotNil(t, f)
	assert.Equal(t, String, f.Type)

	assert.Nil(t, users.Field("missing"))
}
