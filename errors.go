// Package velar ties together the typed query builder (dialect/sql) and
// the schema synchronizer (dialect/sql/schema) behind two thin
// entrypoints: Query for building and executing typed SELECTs, and Sync
// for validating a declared schema against a live database and
// optionally fulfilling the divergences found.
//
//	users := &schema.Table{
//		Name: "users",
//		Fields: []*schema.Field{
//			{Name: "id", Type: schema.Serial, PrimaryKey: true},
//			{Name: "email", Type: schema.String, Unique: true},
//		},
//	}
//
//	result, err := velar.Sync(ctx, drv, "app", []*schema.Table{users}, dbschema.WithFulfill(true))
//
// Most callers use the sub-packages directly (dialect/sql, dialect/sql/schema,
// schema) and only need this package for the two facades.
package velar

import "fmt"

// ErrDeclarationInvalid is the sentinel errors.Is target for a schema
// that fails Validate. Sync wraps it alongside the underlying
// *schema.DeclarationError values so callers can distinguish "the
// declared schema itself is broken" from any other failure mode without
// inspecting message text.
var ErrDeclarationInvalid = fmt.Errorf("velar: declared schema is invalid")

// ErrSyncAborted is the sentinel errors.Is target for a Sync call that
// failed before it could produce a result — a driver failure during
// catalog introspection, not a divergence. Divergences are reported as
// Issues on the result, never as an error.
var ErrSyncAborted = fmt.Errorf("velar: sync aborted")
