package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/enrollment"
	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type enrollmentRepository interface {
	enrollment.Store
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type enrollmentLedger interface {
	Enroll(ctx context.Context, store enrollment.Store, studentID, subjectID string) enrollment.Result
	Unenroll(ctx context.Context, store enrollment.Store, studentID, subjectID string) enrollment.Result
	MaxCredits() int
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type aggregateInvalidator interface {
	InvalidateAggregates(ctx context.Context)
}

// EnrollmentService exposes the enrollment ledger to the HTTP layer.
type EnrollmentService struct {
	repo     enrollmentRepository
	students studentReader
	ledger   enrollmentLedger
	cache    aggregateInvalidator
	logger   *zap.Logger
}

// NewEnrollmentService constructs the enrollment service. cache may be nil.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, ledger enrollmentLedger, cache aggregateInvalidator, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, ledger: ledger, cache: cache, logger: logger}
}

// List returns the student's enrollments with subject details.
func (s *EnrollmentService) List(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	if !validID(studentID) {
		return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Enroll adds the student to the subject.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, subjectID string) (*models.EnrollmentResult, error) {
	if err := validatePair(studentID, subjectID); err != nil {
		return nil, err
	}
	res := s.ledger.Enroll(ctx, s.repo, studentID, subjectID)
	return s.complete(ctx, studentID, subjectID, res)
}

// Unenroll removes the student from the subject and releases the slot.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, subjectID string) (*models.EnrollmentResult, error) {
	if !validID(studentID) || !validID(subjectID) {
		return nil, appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
	}
	res := s.ledger.Unenroll(ctx, s.repo, studentID, subjectID)
	return s.complete(ctx, studentID, subjectID, res)
}

func (s *EnrollmentService) complete(ctx context.Context, studentID, subjectID string, res enrollment.Result) (*models.EnrollmentResult, error) {
	if !res.OK {
		return nil, res.Err(s.ledger.MaxCredits())
	}
	if s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}

	result := &models.EnrollmentResult{StudentID: studentID, SubjectID: subjectID, AvailableSlots: res.AvailableSlots}
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		// The transition is committed; only the summary is incomplete.
		s.logger.Warn("failed to load credit total after enrollment change", zap.String("student_id", studentID), zap.Error(err))
		return result, nil
	}
	for _, e := range enrollments {
		result.TotalCredits += e.Credits
	}
	return result, nil
}

func validatePair(studentID, subjectID string) error {
	if !validID(studentID) {
		return appErrors.Clone(appErrors.ErrStudentNotFound, "")
	}
	if !validID(subjectID) {
		return appErrors.Clone(appErrors.ErrSubjectNotFound, "")
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
