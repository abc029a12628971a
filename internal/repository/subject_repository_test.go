package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

var subjectDetailColumns = []string{"id", "name", "subject_group", "career", "schedule", "credits", "total_slots", "available_slots", "teacher_id", "created_at", "updated_at", "teacher_name", "enrolled_count"}

func TestSubjectRepositoryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT s.id, .* FROM subjects s LEFT JOIN teachers t ON t.id = s.teacher_id WHERE s.career = \$1 AND \(s.name ILIKE \$2 OR s.career ILIKE \$3 OR s.subject_group ILIKE \$4\) AND s.available_slots > \$5 ORDER BY s.credits DESC LIMIT 5 OFFSET 0`).
		WithArgs("Science", "%alg%", "%alg%", "%alg%", 0).
		WillReturnRows(sqlmock.NewRows(subjectDetailColumns).
			AddRow("sub-1", "Algebra", "A", "Science", "Mon 8:00", 4, 30, 12, nil, now, now, nil, 18))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects s WHERE s.career = $1")).
		WithArgs("Science", "%alg%", "%alg%", "%alg%", 0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{
		Career:    "Science",
		Search:    "Alg",
		OnlyOpen:  true,
		PageSize:  5,
		SortBy:    "credits",
		SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, 18, subjects[0].EnrolledCount)
	assert.Equal(t, "Science", subjects[0].Career)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdateShiftsSlots(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(`UPDATE subjects SET .* available_slots = available_slots \+ \(\$8 - total_slots\), total_slots = \$8`).
		WithArgs("sub-1", "Algebra", "A", "Science", "", 3, nil, 40, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(22))

	subject := &models.Subject{ID: "sub-1", Name: "Algebra", Group: "A", Career: "Science", Credits: 3, TotalSlots: 40}
	require.NoError(t, repo.Update(context.Background(), subject))
	assert.Equal(t, 22, subject.AvailableSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdateBelowEnrolled(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(`UPDATE subjects SET`).
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM subjects WHERE id = $1)")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Update(context.Background(), &models.Subject{ID: "sub-1", TotalSlots: 1})
	assert.ErrorIs(t, err, ErrSlotsBelowEnrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1 AND NOT EXISTS")).
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM subjects WHERE id = $1)")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	assert.ErrorIs(t, repo.Delete(context.Background(), "sub-1"), ErrSubjectInUse)

	mock.ExpectExec("DELETE FROM subjects").
		WithArgs("sub-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("sub-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	assert.ErrorIs(t, repo.Delete(context.Background(), "sub-2"), sql.ErrNoRows)

	mock.ExpectExec("DELETE FROM subjects").
		WithArgs("sub-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(context.Background(), "sub-3"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListOpenForStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM subjects s WHERE s.available_slots > \$1 AND NOT EXISTS \(SELECT 1 FROM enrollments e WHERE e.subject_id = s.id AND e.student_id = \$2\) ORDER BY s.name ASC`).
		WithArgs(0, "stu-1").
		WillReturnRows(sqlmock.NewRows(subjectDetailColumns[:11]).
			AddRow("sub-9", "Biology", "B", "Health", "", 2, 10, 3, nil, now, now))

	subjects, err := repo.ListOpenForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Biology", subjects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
