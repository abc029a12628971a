package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/enrollment"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollRequest() enrollment.CommitEnrollRequest {
	return enrollment.CommitEnrollRequest{StudentID: "stu-1", SubjectID: "sub-1", EnrolledAt: time.Now().UTC(), MaxCredits: 20}
}

func expectEnrollPrelude(mock sqlmock.Sqlmock, available, credits, current int) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM enrollments WHERE student_id = \$1 AND subject_id = \$2\)`).
		WithArgs("stu-1", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT id, credits, total_slots, available_slots FROM subjects WHERE id = \$1 FOR UPDATE`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "credits", "total_slots", "available_slots"}).AddRow("sub-1", credits, 10, available))
	if available <= 0 {
		return
	}
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(s.credits\), 0\) FROM enrollments e`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(current))
}

func TestEnrollmentRepositorySnapshot(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM students WHERE id = \$1\)`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT id, credits, total_slots, available_slots FROM subjects WHERE id = \$1`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "credits", "total_slots", "available_slots"}).AddRow("sub-1", 3, 10, 4))
	mock.ExpectQuery(`SELECT e.student_id, e.subject_id, s.credits FROM enrollments e JOIN subjects s`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "subject_id", "credits"}).
			AddRow("stu-1", "sub-2", 4).
			AddRow("stu-1", "sub-3", 2))

	snap, err := repo.Snapshot(context.Background(), "stu-1", "sub-1")
	require.NoError(t, err)
	assert.True(t, snap.StudentExists)
	require.NotNil(t, snap.Subject)
	assert.Equal(t, 4, snap.Subject.AvailableSlots)
	assert.Equal(t, 6, enrollment.TotalCredits(snap.Enrollments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySnapshotMissingSubject(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM subjects WHERE id = \$1`).WillReturnRows(sqlmock.NewRows([]string{"id", "credits", "total_slots", "available_slots"}))
	mock.ExpectQuery(`FROM enrollments e JOIN subjects s`).WillReturnRows(sqlmock.NewRows([]string{"student_id", "subject_id", "credits"}))

	snap, err := repo.Snapshot(context.Background(), "stu-1", "sub-404")
	require.NoError(t, err)
	assert.Nil(t, snap.Subject)
	assert.Empty(t, snap.Enrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnroll(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	expectEnrollPrelude(mock, 1, 3, 17)
	mock.ExpectQuery(`UPDATE subjects SET available_slots = available_slots - 1, updated_at = NOW\(\) WHERE id = \$1 AND available_slots > 0 RETURNING available_slots`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO enrollments`).
		WithArgs(sqlmock.AnyArg(), "stu-1", "sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	slots, err := repo.CommitEnroll(context.Background(), enrollRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnrollCreditLimit(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	expectEnrollPrelude(mock, 1, 3, 18)
	mock.ExpectRollback()

	_, err := repo.CommitEnroll(context.Background(), enrollRequest())
	assert.ErrorIs(t, err, enrollment.ErrCreditLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnrollNoSlots(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	expectEnrollPrelude(mock, 0, 3, 0)
	mock.ExpectRollback()

	_, err := repo.CommitEnroll(context.Background(), enrollRequest())
	assert.ErrorIs(t, err, enrollment.ErrSlotsExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnrollConditionalDecrementLoses(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	expectEnrollPrelude(mock, 1, 3, 0)
	mock.ExpectQuery(`UPDATE subjects SET available_slots = available_slots - 1`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}))
	mock.ExpectRollback()

	_, err := repo.CommitEnroll(context.Background(), enrollRequest())
	assert.ErrorIs(t, err, enrollment.ErrSlotsExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnrollUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	expectEnrollPrelude(mock, 2, 3, 0)
	mock.ExpectQuery(`UPDATE subjects SET available_slots = available_slots - 1`).
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO enrollments`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_student_subject_key"})
	mock.ExpectRollback()

	_, err := repo.CommitEnroll(context.Background(), enrollRequest())
	assert.ErrorIs(t, err, enrollment.ErrDuplicateEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnrollMissingStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.CommitEnroll(context.Background(), enrollRequest())
	assert.ErrorIs(t, err, enrollment.ErrStudentMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitEnrollTransient(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	_, err := repo.CommitEnroll(context.Background(), enrollRequest())
	assert.ErrorIs(t, err, enrollment.ErrTransient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitUnenroll(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))
	mock.ExpectQuery(`DELETE FROM enrollments WHERE student_id = \$1 AND subject_id = \$2 RETURNING id`).
		WithArgs("stu-1", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("enr-1"))
	mock.ExpectQuery(`UPDATE subjects SET available_slots = available_slots \+ 1, updated_at = NOW\(\) WHERE id = \$1 AND available_slots < total_slots RETURNING available_slots`).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(1))
	mock.ExpectCommit()

	slots, err := repo.CommitUnenroll(context.Background(), "stu-1", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 1, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitUnenrollMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))
	mock.ExpectQuery(`DELETE FROM enrollments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.CommitUnenroll(context.Background(), "stu-1", "sub-1")
	assert.ErrorIs(t, err, enrollment.ErrEnrollmentMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitUnenrollCounterDrift(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))
	mock.ExpectQuery(`DELETE FROM enrollments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("enr-1"))
	mock.ExpectQuery(`UPDATE subjects SET available_slots = available_slots \+ 1`).
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}))
	mock.ExpectRollback()

	_, err := repo.CommitUnenroll(context.Background(), "stu-1", "sub-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errSlotCounterDrift))
	assert.False(t, errors.Is(err, enrollment.ErrTransient))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitUnenrollLocksStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.CommitUnenroll(context.Background(), "stu-1", "sub-1")
	assert.ErrorIs(t, err, enrollment.ErrEnrollmentMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCommitUnenrollBrokenConnection(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM students WHERE id = \$1 FOR UPDATE`).
		WillReturnError(io.ErrUnexpectedEOF)
	mock.ExpectRollback()

	_, err := repo.CommitUnenroll(context.Background(), "stu-1", "sub-1")
	assert.ErrorIs(t, err, enrollment.ErrTransient)
	assert.NoError(t, mock.ExpectationsWereMet())
}
