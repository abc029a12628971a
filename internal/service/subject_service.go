package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SubjectDetail, error)
	ExistsByKey(ctx context.Context, name, group, career, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// SubjectService manages the subject catalogue.
type SubjectService struct {
	repo      subjectRepository
	cache     aggregateInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, cache aggregateInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns subjects matching filter with pagination.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, *models.Pagination, error) {
	if filter.TeacherID != "" && !validID(filter.TeacherID) {
		return []models.SubjectDetail{}, newPagination(filter.Page, filter.PageSize, 0), nil
	}
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a subject by ID.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.SubjectDetail, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrSubjectNotFound, "")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSubjectNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject with every slot available.
func (s *SubjectService) Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	req.TeacherID = normalizeRef(req.TeacherID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{
		Name:           strings.TrimSpace(req.Name),
		Group:          strings.TrimSpace(req.Group),
		Career:         strings.TrimSpace(req.Career),
		Schedule:       strings.TrimSpace(req.Schedule),
		Credits:        req.Credits,
		TotalSlots:     req.TotalSlots,
		AvailableSlots: req.TotalSlots,
		TeacherID:      req.TeacherID,
	}
	if err := s.ensureUniqueKey(ctx, subject, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, s.mapWriteErr(err, "failed to create subject")
	}
	s.invalidate(ctx)
	return subject, nil
}

// Update edits a subject. Changing total_slots shifts available_slots by the
// same amount and is refused when it would drop below the enrolled count.
func (s *SubjectService) Update(ctx context.Context, id string, req models.UpdateSubjectRequest) (*models.Subject, error) {
	req.TeacherID = normalizeRef(req.TeacherID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := current.Subject
	subject.Name = strings.TrimSpace(req.Name)
	subject.Group = strings.TrimSpace(req.Group)
	subject.Career = strings.TrimSpace(req.Career)
	subject.Schedule = strings.TrimSpace(req.Schedule)
	subject.Credits = req.Credits
	subject.TotalSlots = req.TotalSlots
	subject.TeacherID = req.TeacherID
	if err := s.ensureUniqueKey(ctx, &subject, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &subject); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrSubjectNotFound, "")
		case errors.Is(err, repository.ErrSlotsBelowEnrolled):
			return nil, appErrors.Clone(appErrors.ErrSlotsBelowEnrolled, "")
		}
		return nil, s.mapWriteErr(err, "failed to update subject")
	}
	s.invalidate(ctx)
	return &subject, nil
}

// Delete removes a subject without enrollments.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return appErrors.Clone(appErrors.ErrSubjectNotFound, "")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrSubjectNotFound, "")
		case errors.Is(err, repository.ErrSubjectInUse):
			return appErrors.Clone(appErrors.ErrConflict, "subject has enrolled students")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.invalidate(ctx)
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

func (s *SubjectService) ensureUniqueKey(ctx context.Context, subject *models.Subject, excludeID string) error {
	exists, err := s.repo.ExistsByKey(ctx, subject.Name, subject.Group, subject.Career, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject already exists for this group and career")
	}
	return nil
}

func (s *SubjectService) mapWriteErr(err error, message string) error {
	switch {
	case repository.IsUniqueViolation(err):
		return appErrors.Clone(appErrors.ErrConflict, "subject already exists for this group and career")
	case repository.IsForeignKeyViolation(err):
		return appErrors.Clone(appErrors.ErrValidation, "teacher not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *SubjectService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
