package schema

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/go-velar/velar/dialect"
	decl "github.com/go-velar/velar/schema"
)

// IssueKind names one kind of divergence between a declared schema and the
// live catalog.
type IssueKind string

const (
	SchemaNotFound            IssueKind = "schemaNotFound"
	TableNotFound             IssueKind = "tableNotFound"
	FieldNotFound             IssueKind = "fieldNotFound"
	FieldTypeMismatch         IssueKind = "fieldTypeMismatch"
	FieldNullableMismatch     IssueKind = "fieldNullableMismatch"
	FieldDefaultValueMismatch IssueKind = "fieldDefaultValueMismatch"
	PrimaryKeyNotFound        IssueKind = "primaryKeyNotFound"
	PrimaryKeyDangling        IssueKind = "primaryKeyDangling"
	ForeignKeyNotFound        IssueKind = "foreignKeyNotFound"
	ForeignKeyDangling        IssueKind = "foreignKeyDangling"
	ForeignKeyMismatch        IssueKind = "foreignKeyMismatch"
	UniqueKeyNotFound         IssueKind = "uniqueKeyNotFound"
	UniqueKeyDangling         IssueKind = "uniqueKeyDangling"
	CheckKeyNotFound          IssueKind = "checkKeyNotFound"
	CheckKeyMismatch          IssueKind = "checkKeyMismatch"
	CheckKeyDangling          IssueKind = "checkKeyDangling"
	BtreeIndexNotFound        IssueKind = "btreeIndexNotFound"
	BtreeIndexDangling        IssueKind = "btreeIndexDangling"
)

// fulfillOrder is the fixed kind order C9 applies fulfillment in.
var fulfillOrder = []IssueKind{
	SchemaNotFound, TableNotFound, FieldNotFound, FieldTypeMismatch,
	FieldNullableMismatch, FieldDefaultValueMismatch,
	PrimaryKeyNotFound, PrimaryKeyDangling,
	ForeignKeyNotFound, ForeignKeyDangling, ForeignKeyMismatch,
	UniqueKeyNotFound, UniqueKeyDangling,
	CheckKeyNotFound, CheckKeyMismatch, CheckKeyDangling,
	BtreeIndexNotFound, BtreeIndexDangling,
}

// ErrorKind classifies a fulfillment failure by the kind of constraint
// violation the driver reported, via dialect/sql/sqlgraph.
type ErrorKind string

const (
	ErrUnique     ErrorKind = "unique"
	ErrForeignKey ErrorKind = "foreign_key"
	ErrCheck      ErrorKind = "check"
	ErrOther      ErrorKind = "other"
)

// Issue is one divergence between a declared table/field and the observed
// catalog state, with its remediation DDL and resolvability verdict.
type Issue struct {
	Kind        IssueKind
	Schema      string
	Table       string
	Field       string
	Resolvable  bool
	Description string
	Fulfilled   bool
	Actions     []string
	Error       error
	ErrorKind   ErrorKind
}

// SyncResult is the outcome of one Sync call.
type SyncResult struct {
	Issues     []*Issue
	Actions    []string
	Warnings   []string
	Resolvable bool
	Fulfilled  bool
}

// Options configures a Sync call.
type Options struct {
	// Fulfill requests that resolvable issues be applied.
	Fulfill bool
	// Logger receives one record per issue discovered and per fulfillment
	// attempt. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithFulfill requests that Sync apply resolvable issues after diffing.
func WithFulfill(fulfill bool) Option { return func(o *Options) { o.Fulfill = fulfill } }

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Sync validates tables, reads schemaName's live state from drv, diffs the
// two, and — when Fulfill is requested and the result is resolvable —
// applies the remediation DDL in the fixed order fulfillment requires.
//
// Sync returns an error only for the two fatal conditions: a declaration
// invariant violation (decl.Validate) or a driver failure during
// introspection (*CatalogError). Divergences are reported as Issues on the
// returned SyncResult, never as an error.
func Sync(ctx context.Context, drv dialect.Driver, schemaName string, tables []*decl.Table, opts ...Option) (*SyncResult, error) {
	options := Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	if err := decl.Validate(tables); err != nil {
		return nil, err
	}

	syncID := uuid.NewString()
	log := options.Logger.With("sync_id", syncID, "schema", schemaName)

	state, err := ReadCatalog(ctx, drv, schemaName)
	if err != nil {
		return nil, err
	}

	result, err := Diff(ctx, drv, schemaName, tables, state)
	if err != nil {
		return nil, err
	}
	for _, issue := range result.Issues {
		log.Info("sync issue", "kind", issue.Kind, "table", issue.Table, "field", issue.Field,
			"resolvable", issue.Resolvable, "description", issue.Description)
	}
	for _, w := range result.Warnings {
		log.Warn("undeclared catalog object", "warning", w)
	}

	if options.Fulfill && result.Resolvable && !result.Fulfilled {
		Fulfill(ctx, drv, result, log)
	}

	log.Info("sync complete", "issues", len(result.Issues), "resolvable", result.Resolvable, "fulfilled", result.Fulfilled)
	return result, nil
}
