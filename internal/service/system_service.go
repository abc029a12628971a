package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type systemRepository interface {
	Ping(ctx context.Context) error
	Database(ctx context.Context) (repository.DatabaseInfo, error)
	TableStats(ctx context.Context) ([]dto.TableStats, error)
	SchemaVersion(ctx context.Context) (int64, error)
	PoolStats() (open, inUse int)
}

// SystemService reports on the health of the backing database.
type SystemService struct {
	repo   systemRepository
	logger *zap.Logger
}

// NewSystemService constructs a SystemService.
func NewSystemService(repo systemRepository, logger *zap.Logger) *SystemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemService{repo: repo, logger: logger}
}

// DatabaseStatus returns connectivity, size and row estimates. An unreachable
// database is reported as disconnected rather than as an error.
func (s *SystemService) DatabaseStatus(ctx context.Context) (*dto.DatabaseStatus, error) {
	status := &dto.DatabaseStatus{Tables: []dto.TableStats{}}
	status.OpenConns, status.InUseConns = s.repo.PoolStats()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Warn("database ping failed", zap.Error(err))
		return status, nil
	}
	status.Connected = true

	info, err := s.repo.Database(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read database info")
	}
	status.Database = info.Name
	status.SizeBytes = info.SizeBytes

	tables, err := s.repo.TableStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read table stats")
	}
	if tables != nil {
		status.Tables = tables
	}

	version, err := s.repo.SchemaVersion(ctx)
	if err != nil {
		s.logger.Warn("schema version unavailable", zap.Error(err))
	}
	status.SchemaVersion = version
	return status, nil
}
