package repository

import (
	"database/sql/driver"
	"errors"
	"io"
	"strings"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqCheckViolation       = "23514"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqAdminShutdown        = "57P01"
	pqConnectionException  = "08"
)

func pqCode(err error) (string, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	code, _ := pqCode(err)
	return code == pqUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	code, _ := pqCode(err)
	return code == pqForeignKeyViolation
}

// IsCheckViolation reports whether err violates a CHECK constraint.
func IsCheckViolation(err error) bool {
	code, _ := pqCode(err)
	return code == pqCheckViolation
}

// IsTransient reports whether the transaction that produced err may succeed
// when retried. Lost connections count: the server rolls back a transaction
// whose connection dies.
func IsTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	code, _ := pqCode(err)
	switch {
	case code == pqSerializationFailure, code == pqDeadlockDetected, code == pqLockNotAvailable, code == pqAdminShutdown:
		return true
	case strings.HasPrefix(code, pqConnectionException):
		return true
	}
	return false
}

func violatedConstraint(err error) string {
	_, constraint := pqCode(err)
	return constraint
}
