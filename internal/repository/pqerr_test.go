package repository

import (
	"database/sql/driver"
	"errors"
	"io"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPQClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "students_student_code_key"})
	assert.True(t, IsUniqueViolation(unique))
	assert.Equal(t, "students_student_code_key", violatedConstraint(unique))
	assert.False(t, IsTransient(unique))

	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsCheckViolation(&pq.Error{Code: "23514"}))

	for _, code := range []pq.ErrorCode{"40001", "40P01", "55P03", "57P01", "08006", "08003"} {
		assert.True(t, IsTransient(&pq.Error{Code: code}), string(code))
	}
	assert.True(t, IsTransient(fmt.Errorf("lock student: %w", driver.ErrBadConn)))
	assert.True(t, IsTransient(fmt.Errorf("commit: %w", io.ErrUnexpectedEOF)))
	assert.False(t, IsTransient(&pq.Error{Code: "23514"}))

	plain := errors.New("boom")
	assert.False(t, IsUniqueViolation(plain))
	assert.False(t, IsTransient(plain))
	assert.Empty(t, violatedConstraint(plain))
}
