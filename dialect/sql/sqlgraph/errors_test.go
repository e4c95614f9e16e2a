package sqlgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, IsUniqueConstraintError(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueConstraintError(fmt.Errorf("wrap: %w", &pq.Error{Code: "23505"})))
	assert.True(t, IsUniqueConstraintError(errors.New("ERROR: duplicate key value violates unique constraint")))
	assert.False(t, IsUniqueConstraintError(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueConstraintError(nil))
}

func TestIsForeignKeyConstraintError(t *testing.T) {
	assert.True(t, IsForeignKeyConstraintError(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyConstraintError(errors.New("update or delete violates foreign key constraint")))
	assert.False(t, IsForeignKeyConstraintError(&pq.Error{Code: "23505"}))
}

func TestIsCheckConstraintError(t *testing.T) {
	assert.True(t, IsCheckConstraintError(&pq.Error{Code: "23514"}))
	assert.True(t, IsCheckConstraintError(errors.New("new row violates check constraint")))
	assert.False(t, IsCheckConstraintError(&pq.Error{Code: "23505"}))
}

func TestIsConstraintError(t *testing.T) {
	assert.True(t, IsConstraintError(&pq.Error{Code: "23505"}))
	assert.True(t, IsConstraintError(&pq.Error{Code: "23503"}))
	assert.True(t, IsConstraintError(&pq.Error{Code: "23514"}))
	assert.False(t, IsConstraintError(errors.New("connection refused")))

	wrapped := NewConstraintError("unique", errors.New("driver says no"))
	assert.True(t, IsConstraintError(wrapped))
}

func TestConstraintError_Unwrap(t *testing.T) {
	inner := errors.New("driver says no")
	wrapped := NewConstraintError("unique", inner)
	assert.ErrorIs(t, wrapped, inner)
}
