package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepositorySubjectsByCareer(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(`SELECT career, COUNT\(\*\) AS count FROM subjects GROUP BY career ORDER BY count DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"career", "count"}).AddRow("Science", 3).AddRow("Arts", 1))

	rows, err := repo.SubjectsByCareer(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Science", rows[0].Career)
	assert.Equal(t, 3, rows[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreditLoadsAndSlots(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(`SELECT SUM\(s.credits\) AS credits FROM enrollments e`).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(8).AddRow(20))
	mock.ExpectQuery(`SELECT available_slots FROM subjects`).
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(0).AddRow(12))

	loads, err := repo.StudentCreditLoads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{8, 20}, loads)

	slots, err := repo.AvailableSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 12}, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}
