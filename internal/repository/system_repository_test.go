package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemRepositoryDatabase(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSystemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT current_database() AS name, pg_database_size(current_database()) AS size_bytes")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "size_bytes"}).AddRow("school", int64(8192)))
	mock.ExpectQuery("FROM pg_stat_user_tables").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rows"}).AddRow("enrollments", int64(4)).AddRow("students", int64(2)))
	mock.ExpectQuery("FROM goose_db_version").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(1)))

	info, err := repo.Database(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "school", info.Name)
	assert.Equal(t, int64(8192), info.SizeBytes)

	stats, err := repo.TableStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "enrollments", stats[0].Name)

	version, err := repo.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
