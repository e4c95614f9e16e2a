package schema

import (
	"context"
	"log/slog"
	"testing"

	"github.com/go-velar/velar/dialect"
	dsql "github.com/go-velar/velar/dialect/sql"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestFulfill_AppliesInFixedOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := dsql.OpenDB(dialect.Postgres, db)

	// Declared out of fulfillOrder to prove Fulfill reorders by kind, not
	// by the slice's original position.
	result := &SyncResult{Issues: []*Issue{
		{Kind: BtreeIndexNotFound, Resolvable: true, Actions: []string{"create index i1"}},
		{Kind: TableNotFound, Resolvable: true, Actions: []string{"create table t1"}},
		{Kind: SchemaNotFound, Resolvable: true, Actions: []string{"create schema s1"}},
	}}

	mock.ExpectExec("create schema s1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create index i1").WillReturnResult(sqlmock.NewResult(0, 0))

	Fulfill(context.Background(), drv, result, discardLogger())

	assert.True(t, result.Fulfilled)
	for _, issue := range result.Issues {
		assert.True(t, issue.Fulfilled, issue.Kind)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfill_UnresolvableIssueNeverAttempted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := dsql.OpenDB(dialect.Postgres, db)

	result := &SyncResult{Issues: []*Issue{
		{Kind: FieldNullableMismatch, Resolvable: false, Actions: []string{"alter table users alter column email set not null"}},
	}}

	Fulfill(context.Background(), drv, result, discardLogger())

	assert.False(t, result.Fulfilled)
	assert.False(t, result.Issues[0].Fulfilled)
	require.NoError(t, mock.ExpectationsWereMet()) // no statement should have been executed
}

func TestFulfill_FailureRecordedButLaterIssuesStillRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := dsql.OpenDB(dialect.Postgres, db)

	result := &SyncResult{Issues: []*Issue{
		{Kind: TableNotFound, Table: "orders", Resolvable: true, Actions: []string{"create table orders"}},
		{Kind: FieldNotFound, Table: "orders", Field: "status", Resolvable: true, Actions: []string{"alter table orders add column status"}},
	}}

	mock.ExpectExec("create table orders").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec("alter table orders add column status").WillReturnResult(sqlmock.NewResult(0, 0))

	Fulfill(context.Background(), drv, result, discardLogger())

	assert.False(t, result.Fulfilled)
	assert.False(t, result.Issues[0].Fulfilled)
	require.Error(t, result.Issues[0].Error)
	assert.Equal(t, ErrUnique, result.Issues[0].ErrorKind)
	assert.True(t, result.Issues[1].Fulfilled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfill_StopsApplyingStatementsAfterFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := dsql.OpenDB(dialect.Postgres, db)

	result := &SyncResult{Issues: []*Issue{
		{Kind: ForeignKeyMismatch, Resolvable: true, Actions: []string{
			"drop constraint old_fkey",
			"add constraint new_fkey",
		}},
	}}

	mock.ExpectExec("drop constraint old_fkey").WillReturnError(&pq.Error{Code: "23503"})

	Fulfill(context.Background(), drv, result, discardLogger())

	assert.False(t, result.Issues[0].Fulfilled)
	assert.Equal(t, ErrForeignKey, result.Issues[0].ErrorKind)
	require.NoError(t, mock.ExpectationsWereMet()) // second statement never attempted
}
