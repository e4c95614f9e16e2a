// Package schemafile loads a declared schema from a YAML document instead
// of Go source. It is a convenience layer only: schema.Validate and the
// synchronizer consume the same []*schema.Table either way, and nothing in
// the core model depends on this package.
//
// Loading is synchronous and one-shot; there is no file-watching variant.
package schemafile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-velar/velar/schema"
)

type document struct {
	Tables []table `yaml:"tables"`
}

type table struct {
	Name   string  `yaml:"name"`
	Fields []field `yaml:"fields"`
}

type field struct {
	Name         string     `yaml:"name"`
	Type         string     `yaml:"type"`
	Nullable     bool       `yaml:"nullable"`
	Unique       bool       `yaml:"unique"`
	DefaultValue string     `yaml:"defaultValue"`
	PrimaryKey   bool       `yaml:"primaryKey"`
	References   *reference `yaml:"references"`
	OneOf        []string   `yaml:"oneOf"`
	Index        string     `yaml:"index"`
}

type reference struct {
	Table    string `yaml:"table"`
	Field    string `yaml:"field"`
	OnDelete string `yaml:"onDelete"`
	OnUpdate string `yaml:"onUpdate"`
}

// Load reads a YAML document at path and returns the declared tables it
// describes. It performs no validation beyond the shape of the YAML
// itself; call schema.Validate on the result before syncing.
func Load(path string) ([]*schema.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schemafile: parse %s: %w", path, err)
	}

	tables := make([]*schema.Table, len(doc.Tables))
	for i, t := range doc.Tables {
		tables[i] = convertTable(t)
	}
	return tables, nil
}

func convertTable(t table) *schema.Table {
	out := &schema.Table{Name: t.Name, Fields: make([]*schema.Field, len(t.Fields))}
	for i, f := range t.Fields {
		out.Fields[i] = convertField(f)
	}
	return out
}

func convertField(f field) *schema.Field {
	out := &schema.Field{
		Name:         f.Name,
		Type:         schema.FieldType(f.Type),
		Nullable:     f.Nullable,
		Unique:       f.Unique,
		DefaultValue: f.DefaultValue,
		PrimaryKey:   f.PrimaryKey,
		OneOf:        f.OneOf,
		Index:        schema.IndexType(f.Index),
	}
	if f.References != nil {
		out.References = &schema.FieldReference{
			Table:    f.References.Table,
			Field:    f.References.Field,
			OnDelete: schema.ReferenceAction(f.References.OnDelete),
			OnUpdate: schema.ReferenceAction(f.References.OnUpdate),
		}
	}
	return out
}
