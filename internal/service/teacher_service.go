package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherListItem, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) (*string, error)
}

type teacherSubjectReader interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error)
}

// TeacherService manages teacher records.
type TeacherService struct {
	repo      teacherRepository
	subjects  teacherSubjectReader
	media     photoLinker
	cache     aggregateInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, subjects teacherSubjectReader, media photoLinker, cache aggregateInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, subjects: subjects, media: media, cache: cache, validator: validate, logger: logger}
}

// List returns teachers with their subject counts.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherListItem, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher together with the subjects they teach.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByTeacher(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	detail := &models.TeacherDetail{Teacher: *teacher, Subjects: subjects}
	if s.media != nil {
		detail.PhotoURL = s.media.PhotoURL(dto.MediaOwnerTeacher, teacher.Photo)
	}
	return detail, nil
}

// Create adds a teacher.
func (s *TeacherService) Create(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	email := strings.TrimSpace(req.Email)
	if err := s.ensureUniqueEmail(ctx, email, ""); err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		Name:   strings.TrimSpace(req.Name),
		Age:    req.Age,
		Email:  email,
		Titles: dedupeTitles(req.Titles),
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.invalidate(ctx)
	return teacher, nil
}

// Update edits a teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if err := s.ensureUniqueEmail(ctx, email, id); err != nil {
		return nil, err
	}
	teacher.Name = strings.TrimSpace(req.Name)
	teacher.Age = req.Age
	teacher.Email = email
	teacher.Titles = dedupeTitles(req.Titles)
	if err := s.repo.Update(ctx, teacher); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.invalidate(ctx)
	return teacher, nil
}

// Delete removes a teacher. Their subjects remain without a teacher.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	photo, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	if s.media != nil {
		s.media.RemovePhoto(photo)
	}
	s.invalidate(ctx)
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}

func (s *TeacherService) find(ctx context.Context, id string) (*models.Teacher, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *TeacherService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return nil
}

func (s *TeacherService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}
}

func dedupeTitles(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}
