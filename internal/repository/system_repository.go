package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

// SystemRepository inspects the database backing the API.
type SystemRepository struct {
	db *sqlx.DB
}

// NewSystemRepository constructs a SystemRepository.
func NewSystemRepository(db *sqlx.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

// DatabaseInfo is the name and on-disk size of the current database.
type DatabaseInfo struct {
	Name      string `db:"name"`
	SizeBytes int64  `db:"size_bytes"`
}

// Ping checks connectivity.
func (r *SystemRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Database returns the current database name and size.
func (r *SystemRepository) Database(ctx context.Context) (DatabaseInfo, error) {
	var info DatabaseInfo
	const query = `SELECT current_database() AS name, pg_database_size(current_database()) AS size_bytes`
	if err := r.db.GetContext(ctx, &info, query); err != nil {
		return DatabaseInfo{}, fmt.Errorf("database size: %w", err)
	}
	return info, nil
}

// TableStats returns live row estimates for the application tables.
func (r *SystemRepository) TableStats(ctx context.Context) ([]dto.TableStats, error) {
	const query = `SELECT relname AS name, n_live_tup AS rows FROM pg_stat_user_tables
        WHERE relname IN ('users', 'teachers', 'subjects', 'students', 'enrollments')
        ORDER BY relname`
	var stats []dto.TableStats
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("table stats: %w", err)
	}
	return stats, nil
}

// SchemaVersion returns the latest applied migration version.
func (r *SystemRepository) SchemaVersion(ctx context.Context) (int64, error) {
	var version sql.NullInt64
	const query = `SELECT MAX(version_id) FROM goose_db_version WHERE is_applied`
	if err := r.db.GetContext(ctx, &version, query); err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return version.Int64, nil
}

// PoolStats reports open and in-use connections.
func (r *SystemRepository) PoolStats() (open, inUse int) {
	stats := r.db.Stats()
	return stats.OpenConnections, stats.InUse
}
