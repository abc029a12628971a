package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
)

// AvatarJobType is the job type used for avatar generation.
const AvatarJobType = "avatar.generate"

// AvatarJob is the payload of an avatar generation job.
type AvatarJob struct {
	Owner   dto.MediaOwner
	OwnerID string
	Name    string
}

type avatarGenerator interface {
	GenerateAvatar(ctx context.Context, owner dto.MediaOwner, ownerID, displayName string) error
}

// AvatarJobHandler returns the queue handler that renders avatars.
func AvatarJobHandler(media avatarGenerator) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(AvatarJob)
		if !ok {
			return fmt.Errorf("unexpected avatar payload %T", job.Payload)
		}
		return media.GenerateAvatar(ctx, payload.Owner, payload.OwnerID, payload.Name)
	}
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type teacherImportRepository interface {
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

type subjectImportRepository interface {
	ExistsByKey(ctx context.Context, name, group, career, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type studentImportRepository interface {
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// ImportService bulk-loads catalogue records from JSON arrays.
type ImportService struct {
	teachers  teacherImportRepository
	subjects  subjectImportRepository
	students  studentImportRepository
	queue     jobEnqueuer
	cache     aggregateInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImportService constructs an ImportService. queue may be nil, in which
// case no avatars are generated.
func NewImportService(teachers teacherImportRepository, subjects subjectImportRepository, students studentImportRepository, queue jobEnqueuer, cache aggregateInvalidator, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		teachers:  teachers,
		subjects:  subjects,
		students:  students,
		queue:     queue,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

type importOutcome int

const (
	outcomeInserted importOutcome = iota
	outcomeSkipped
)

// Import reads a JSON array from r and inserts every valid, non-duplicate item
// of the given kind.
func (s *ImportService) Import(ctx context.Context, kind dto.ImportKind, r io.Reader) (*dto.ImportSummary, error) {
	var apply func(ctx context.Context, raw json.RawMessage, summary *dto.ImportSummary) (importOutcome, error)
	switch kind {
	case dto.ImportTeachers:
		apply = s.importTeacher
	case dto.ImportSubjects:
		apply = s.importSubject
	case dto.ImportStudents:
		apply = s.importStudent
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported import kind %q", kind))
	}

	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("file must contain a JSON array of %s", kind))
	}

	summary := &dto.ImportSummary{Kind: kind}
	for i, raw := range items {
		if err := ctx.Err(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "import cancelled")
		}
		outcome, err := apply(ctx, raw, summary)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, dto.ImportFailure{Index: i, Reason: err.Error()})
			continue
		}
		switch outcome {
		case outcomeInserted:
			summary.Inserted++
		case outcomeSkipped:
			summary.Skipped++
		}
	}

	if summary.Inserted > 0 && s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}
	s.logger.Info("import finished",
		zap.String("kind", string(kind)),
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *ImportService) importTeacher(ctx context.Context, raw json.RawMessage, summary *dto.ImportSummary) (importOutcome, error) {
	var item dto.TeacherImportItem
	if err := s.decode(raw, &item); err != nil {
		return 0, err
	}
	email := strings.TrimSpace(item.Email)
	exists, err := s.teachers.ExistsByEmail(ctx, email, "")
	if err != nil {
		return 0, s.internal("check teacher email", err)
	}
	if exists {
		return outcomeSkipped, nil
	}
	teacher := &models.Teacher{
		Name:   strings.TrimSpace(item.Name),
		Age:    item.Age,
		Email:  email,
		Titles: dedupeTitles(item.Titles),
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		if repository.IsUniqueViolation(err) {
			return outcomeSkipped, nil
		}
		return 0, s.internal("create teacher", err)
	}
	s.queueAvatar(summary, dto.MediaOwnerTeacher, teacher.ID, teacher.Name)
	return outcomeInserted, nil
}

func (s *ImportService) importSubject(ctx context.Context, raw json.RawMessage, summary *dto.ImportSummary) (importOutcome, error) {
	var item dto.SubjectImportItem
	if err := s.decode(raw, &item); err != nil {
		return 0, err
	}
	name := strings.TrimSpace(item.Name)
	group := strings.TrimSpace(item.Group)
	career := strings.TrimSpace(item.Career)
	exists, err := s.subjects.ExistsByKey(ctx, name, group, career, "")
	if err != nil {
		return 0, s.internal("check subject key", err)
	}
	if exists {
		return outcomeSkipped, nil
	}

	subject := &models.Subject{
		Name:           name,
		Group:          group,
		Career:         career,
		Schedule:       strings.TrimSpace(item.Schedule),
		Credits:        item.Credits,
		TotalSlots:     item.TotalSlots,
		AvailableSlots: item.TotalSlots,
	}
	if email := strings.TrimSpace(item.TeacherEmail); email != "" {
		teacher, err := s.teachers.FindByEmail(ctx, email)
		switch {
		case err == nil:
			subject.TeacherID = &teacher.ID
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Debug("import subject teacher not found", zap.String("teacher_email", email))
		default:
			return 0, s.internal("find teacher", err)
		}
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if repository.IsUniqueViolation(err) {
			return outcomeSkipped, nil
		}
		return 0, s.internal("create subject", err)
	}
	return outcomeInserted, nil
}

func (s *ImportService) importStudent(ctx context.Context, raw json.RawMessage, summary *dto.ImportSummary) (importOutcome, error) {
	var item dto.StudentImportItem
	if err := s.decode(raw, &item); err != nil {
		return 0, err
	}
	code := strings.TrimSpace(item.StudentCode)
	exists, err := s.students.ExistsByCode(ctx, code, "")
	if err != nil {
		return 0, s.internal("check student code", err)
	}
	if exists {
		return outcomeSkipped, nil
	}
	student := &models.Student{
		StudentCode: code,
		Name:        strings.TrimSpace(item.Name),
		Email:       strings.TrimSpace(item.Email),
	}
	if err := s.students.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return outcomeSkipped, nil
		}
		return 0, s.internal("create student", err)
	}
	s.queueAvatar(summary, dto.MediaOwnerStudent, student.ID, student.Name)
	return outcomeInserted, nil
}

func (s *ImportService) decode(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed item: %v", err)
	}
	if err := s.validator.Struct(dst); err != nil {
		return fmt.Errorf("invalid item: %v", err)
	}
	return nil
}

func (s *ImportService) internal(action string, err error) error {
	s.logger.Error("import item failed", zap.String("action", action), zap.Error(err))
	return fmt.Errorf("%s failed", action)
}

func (s *ImportService) queueAvatar(summary *dto.ImportSummary, owner dto.MediaOwner, ownerID, name string) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    AvatarJobType,
		Payload: AvatarJob{Owner: owner, OwnerID: ownerID, Name: name},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to queue avatar", zap.String("owner_id", ownerID), zap.Error(err))
		return
	}
	summary.AvatarsQueued++
}
