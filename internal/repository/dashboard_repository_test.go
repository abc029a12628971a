package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM teachers\) AS teachers`).
		WillReturnRows(sqlmock.NewRows([]string{"teachers", "students", "subjects", "enrollments"}).AddRow(3, 40, 12, 95))

	counts, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Teachers)
	assert.Equal(t, 95, counts.Enrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryRecentTeachers(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`FROM teachers t LEFT JOIN subjects s ON s.teacher_id = t.id GROUP BY t.id ORDER BY t.created_at DESC LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "subject_count"}).
			AddRow("t-1", "Marie", "marie@school.test", time.Now(), 2))

	teachers, err := repo.RecentTeachers(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, 2, teachers[0].SubjectCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryRecentSubjectsError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`FROM subjects ORDER BY created_at DESC`).
		WithArgs(5).
		WillReturnError(errors.New("timeout"))

	_, err := repo.RecentSubjects(context.Background(), 5)
	assert.ErrorContains(t, err, "recent subjects")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)

	var out map[string]int
	assert.Error(t, repo.Get(context.Background(), "dash:summary", &out))
	assert.NoError(t, repo.Set(context.Background(), "dash:summary", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "dash:*"))
	assert.NoError(t, repo.Close())
}
