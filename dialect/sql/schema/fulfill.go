package schema

import (
	"context"
	"log/slog"

	"github.com/go-velar/velar/dialect"
	"github.com/go-velar/velar/dialect/sql/sqlgraph"
)

// Fulfill applies the remediation DDL of every resolvable, not-yet-fulfilled
// issue in result, one issue at a time, in the fixed kind order fulfillOrder
// declares. Within a kind, issues run in the order Diff produced them.
//
// Fulfill stops applying further actions for an issue the moment one of its
// statements fails, classifies the failure via sqlgraph, and records it on
// the issue; it does not stop processing the remaining issues. Callers that
// want all-or-nothing semantics should wrap drv in a transaction and check
// result.Fulfilled afterward.
func Fulfill(ctx context.Context, drv dialect.Driver, result *SyncResult, log *slog.Logger) {
	byKind := make(map[IssueKind][]*Issue, len(fulfillOrder))
	for _, issue := range result.Issues {
		byKind[issue.Kind] = append(byKind[issue.Kind], issue)
	}

	allFulfilled := true
	for _, kind := range fulfillOrder {
		for _, issue := range byKind[kind] {
			if issue.Fulfilled {
				continue
			}
			if !issue.Resolvable {
				allFulfilled = false
				continue
			}
			fulfillIssue(ctx, drv, issue, log)
			if !issue.Fulfilled {
				allFulfilled = false
			}
		}
	}
	result.Fulfilled = allFulfilled
}

func fulfillIssue(ctx context.Context, drv dialect.Driver, issue *Issue, log *slog.Logger) {
	for _, stmt := range issue.Actions {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			issue.Error = err
			issue.ErrorKind = classifyError(err)
			log.Error("fulfillment failed", "kind", issue.Kind, "table", issue.Table, "field", issue.Field,
				"statement", stmt, "error", err, "error_kind", issue.ErrorKind)
			return
		}
	}
	issue.Fulfilled = true
	log.Info("fulfilled", "kind", issue.Kind, "table", issue.Table, "field", issue.Field)
}

func classifyError(err error) ErrorKind {
	switch {
	case sqlgraph.IsUniqueConstraintError(err):
		return ErrUnique
	case sqlgraph.IsForeignKeyConstraintError(err):
		return ErrForeignKey
	case sqlgraph.IsCheckConstraintError(err):
		return ErrCheck
	default:
		return ErrOther
	}
}
