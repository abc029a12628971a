package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const dashboardCacheKey = DashboardCachePrefix + "summary"

type dashboardRepository interface {
	Counts(ctx context.Context) (dto.DashboardCounts, error)
	RecentTeachers(ctx context.Context, limit int) ([]dto.RecentTeacher, error)
	RecentStudents(ctx context.Context, limit int) ([]dto.RecentStudent, error)
	RecentSubjects(ctx context.Context, limit int) ([]dto.RecentSubject, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService composes the staff landing page.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRepository, cache *CacheService, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns dashboard data and whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	if err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardResponse, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard counts")
	}
	teachers, err := s.repo.RecentTeachers(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent teachers")
	}
	students, err := s.repo.RecentStudents(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent students")
	}
	subjects, err := s.repo.RecentSubjects(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent subjects")
	}
	if teachers == nil {
		teachers = []dto.RecentTeacher{}
	}
	if students == nil {
		students = []dto.RecentStudent{}
	}
	if subjects == nil {
		subjects = []dto.RecentSubject{}
	}
	return &dto.DashboardResponse{
		Counts:         counts,
		RecentTeachers: teachers,
		RecentStudents: students,
		RecentSubjects: subjects,
		GeneratedAt:    s.now().UTC(),
	}, nil
}
