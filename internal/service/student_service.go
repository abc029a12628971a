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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) (*string, error)
}

type studentEnrollmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type openSubjectReader interface {
	ListOpenForStudent(ctx context.Context, studentID string) ([]models.Subject, error)
}

type photoLinker interface {
	PhotoURL(owner dto.MediaOwner, photo *string) string
	RemovePhoto(photo *string)
}

// StudentService handles student use-cases.
type StudentService struct {
	repo        studentRepository
	enrollments studentEnrollmentReader
	subjects    openSubjectReader
	media       photoLinker
	cache       aggregateInvalidator
	maxCredits  int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, enrollments studentEnrollmentReader, subjects openSubjectReader, media photoLinker, cache aggregateInvalidator, maxCredits int, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:        repo,
		enrollments: enrollments,
		subjects:    subjects,
		media:       media,
		cache:       cache,
		maxCredits:  maxCredits,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student with their enrollments, credit load and the subjects
// still open to them.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	open, err := s.subjects.ListOpenForStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open subjects")
	}

	detail := &models.StudentDetail{
		Student:           *student,
		Enrollments:       enrollments,
		MaxCredits:        s.maxCredits,
		AvailableSubjects: open,
	}
	if detail.Enrollments == nil {
		detail.Enrollments = []models.EnrollmentDetail{}
	}
	if detail.AvailableSubjects == nil {
		detail.AvailableSubjects = []models.Subject{}
	}
	for _, e := range enrollments {
		detail.TotalCredits += e.Credits
	}
	if s.media != nil {
		detail.PhotoURL = s.media.PhotoURL(dto.MediaOwnerStudent, student.Photo)
	}
	return detail, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	code := strings.TrimSpace(req.StudentCode)
	if err := s.ensureUniqueCode(ctx, code, ""); err != nil {
		return nil, err
	}
	student := &models.Student{
		StudentCode: code,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidate(ctx)
	return student, nil
}

// Update edits a student's profile.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.StudentCode)
	if err := s.ensureUniqueCode(ctx, code, id); err != nil {
		return nil, err
	}
	student.StudentCode = code
	student.Name = strings.TrimSpace(req.Name)
	student.Email = strings.TrimSpace(req.Email)
	if err := s.repo.Update(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx)
	return student, nil
}

// Delete removes a student, their enrollments and their photo. Freed slots
// return to the subjects in the same transaction.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return appErrors.Clone(appErrors.ErrStudentNotFound, "")
	}
	photo, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if s.media != nil {
		s.media.RemovePhoto(photo)
	}
	s.invalidate(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) find(ctx context.Context, id string) (*models.Student, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student code already exists")
	}
	return nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}
}

func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
