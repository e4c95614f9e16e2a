package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-velar/velar/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `
tables:
  - name: users
    fields:
      - name: id
        type: serial
        primaryKey: true
      - name: email
        type: string
        unique: true
  - name: orders
    fields:
      - name: id
        type: serial
        primaryKey: true
      - name: user_id
        type: integer
        references:
          table: users
          field: id
          onDelete: cascade
      - name: status
        type: string
        oneOf: ["pending", "paid"]
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTemp(t, doc)

	tables, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	users := tables[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Fields, 2)
	assert.Equal(t, schema.Serial, users.Fields[0].Type)
	assert.True(t, users.Fields[0].PrimaryKey)
	assert.True(t, users.Fields[1].Unique)

	orders := tables[1]
	userID := orders.Field("user_id")
	require.NotNil(t, userID)
	require.NotNil(t, userID.References)
	assert.Equal(t, "users", userID.References.Table)
	assert.Equal(t, "id", userID.References.Field)
	assert.Equal(t, schema.Cascade, userID.References.OnDelete)

	status := orders.Field("status")
	require.NotNil(t, status)
	assert.Equal(t, []string{"pending", "paid"}, status.OneOf)

	require.NoError(t, schema.Validate(tables))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "tables: [this is not: valid: yaml")
	_, err := Load(path)
	require.Error(t, err)
}
