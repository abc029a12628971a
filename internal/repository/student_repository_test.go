package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_code", "name", "email", "photo", "created_at", "updated_at", "enrollment_count", "total_credits"}).
		AddRow("stu-1", "S001", "Ana", "ana@school.test", nil, time.Now(), time.Now(), 2, 7)
	mock.ExpectQuery(`FROM students st\s+LEFT JOIN enrollments e ON e.student_id = st.id\s+LEFT JOIN subjects sub ON sub.id = e.subject_id WHERE \(LOWER\(st.name\) LIKE \$1 .*\)\s+GROUP BY st.id ORDER BY st.name ASC LIMIT 10 OFFSET 10`).
		WithArgs("%ana%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students st WHERE")).
		WithArgs("%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Ana", Page: 2, PageSize: 10, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 7, students[0].TotalCredits)
	assert.Equal(t, 2, students[0].EnrollmentCount)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "S001", "Ana", "ana@school.test", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{StudentCode: "S001", Name: "Ana", Email: "ana@school.test"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE student_code = $1 AND id <> $2 LIMIT 1")).
		WithArgs("S001", "stu-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByCode(context.Background(), "S001", "stu-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteRestoresSlots(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT photo FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"photo"}).AddRow("students/ab_photo.png"))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 RETURNING subject_id")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}).AddRow("sub-1").AddRow("sub-2"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET available_slots = available_slots + 1, updated_at = NOW() WHERE id = ANY($1)")).
		WithArgs(subjectIDs{"sub-1", "sub-2"}).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	photo, err := repo.Delete(context.Background(), "stu-1")
	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.Equal(t, "students/ab_photo.png", *photo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteWithoutEnrollments(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT photo FROM students").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"photo"}).AddRow(nil))
	mock.ExpectQuery("DELETE FROM enrollments").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	photo, err := repo.Delete(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Nil(t, photo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT photo FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"photo"}))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// subjectIDs matches the array parameter sent for a list of subject ids.
type subjectIDs []string

func (ids subjectIDs) Match(v driver.Value) bool {
	want, err := pq.Array([]string(ids)).Value()
	if err != nil {
		return false
	}
	return v == want
}
