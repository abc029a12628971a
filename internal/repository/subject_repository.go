package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// Subject repository errors.
var (
	ErrSubjectInUse       = errors.New("subject has active enrollments")
	ErrSlotsBelowEnrolled = errors.New("total slots below enrolled count")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var subjectColumns = []string{
	"s.id", "s.name", "s.subject_group", "s.career", "s.schedule", "s.credits",
	"s.total_slots", "s.available_slots", "s.teacher_id", "s.created_at", "s.updated_at",
}

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching the filter with their teacher and enrolled
// count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error) {
	var conds []sq.Sqlizer
	if filter.Career != "" {
		conds = append(conds, sq.Eq{"s.career": filter.Career})
	}
	if filter.Group != "" {
		conds = append(conds, sq.Eq{"s.subject_group": filter.Group})
	}
	if filter.TeacherID != "" {
		conds = append(conds, sq.Eq{"s.teacher_id": filter.TeacherID})
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, sq.Or{sq.ILike{"s.name": pattern}, sq.ILike{"s.career": pattern}, sq.ILike{"s.subject_group": pattern}})
	}
	if filter.OnlyOpen {
		conds = append(conds, sq.Gt{"s.available_slots": 0})
	}

	allowedSorts := map[string]string{
		"name":            "s.name",
		"career":          "s.career",
		"credits":         "s.credits",
		"available_slots": "s.available_slots",
		"created_at":      "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)

	columns := append(append([]string{}, subjectColumns...), "t.name AS teacher_name", "(s.total_slots - s.available_slots) AS enrolled_count")
	selectQ := psql.Select(columns...).
		From("subjects s").
		LeftJoin("teachers t ON t.id = s.teacher_id").
		OrderBy(column + " " + order).
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size))
	countQ := psql.Select("COUNT(*)").From("subjects s")
	for _, cond := range conds {
		selectQ = selectQ.Where(cond)
		countQ = countQ.Where(cond)
	}

	query, args, err := selectQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build subject list query: %w", err)
	}
	var subjects []models.SubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build subject count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID returns a subject with its teacher name and enrolled count.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	query, args, err := psql.Select(append(append([]string{}, subjectColumns...), "t.name AS teacher_name", "(s.total_slots - s.available_slots) AS enrolled_count")...).
		From("subjects s").
		LeftJoin("teachers t ON t.id = s.teacher_id").
		Where(sq.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subject query: %w", err)
	}
	var subject models.SubjectDetail
	if err := r.db.GetContext(ctx, &subject, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// ListByTeacher returns the subjects assigned to a teacher.
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error) {
	query, args, err := psql.Select(subjectColumns...).
		From("subjects s").
		Where(sq.Eq{"s.teacher_id": teacherID}).
		OrderBy("s.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build teacher subjects query: %w", err)
	}
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return subjects, nil
}

// ListOpenForStudent returns subjects with free slots the student is not yet
// enrolled in.
func (r *SubjectRepository) ListOpenForStudent(ctx context.Context, studentID string) ([]models.Subject, error) {
	query, args, err := psql.Select(subjectColumns...).
		From("subjects s").
		Where(sq.Gt{"s.available_slots": 0}).
		Where(sq.Expr("NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.subject_id = s.id AND e.student_id = ?)", studentID)).
		OrderBy("s.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open subjects query: %w", err)
	}
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list open subjects: %w", err)
	}
	return subjects, nil
}

// ExistsByKey checks the (name, group, career) uniqueness key, optionally
// excluding an ID.
func (r *SubjectRepository) ExistsByKey(ctx context.Context, name, group, career, excludeID string) (bool, error) {
	q := psql.Select("1").From("subjects").
		Where(sq.Eq{"name": name, "subject_group": group, "career": career}).
		Limit(1)
	if excludeID != "" {
		q = q.Where(sq.NotEq{"id": excludeID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build subject key query: %w", err)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject key: %w", err)
	}
	return true, nil
}

// Create inserts a subject. AvailableSlots must already equal TotalSlots.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, name, subject_group, career, schedule, credits, total_slots, available_slots, teacher_id, created_at, updated_at)
        VALUES (:id, :name, :subject_group, :career, :schedule, :credits, :total_slots, :available_slots, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update edits a subject. A change to total_slots moves available_slots by the
// same delta; the update is refused with ErrSlotsBelowEnrolled when that would
// leave fewer slots than current enrollments. On success subject.AvailableSlots
// holds the stored value.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = $2, subject_group = $3, career = $4, schedule = $5, credits = $6, teacher_id = $7,
        available_slots = available_slots + ($8 - total_slots), total_slots = $8, updated_at = $9
        WHERE id = $1 AND available_slots + ($8 - total_slots) >= 0
        RETURNING available_slots`
	err := r.db.GetContext(ctx, &subject.AvailableSlots, query,
		subject.ID, subject.Name, subject.Group, subject.Career, subject.Schedule, subject.Credits, subject.TeacherID,
		subject.TotalSlots, subject.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update subject: %w", err)
	}
	exists, existsErr := r.exists(ctx, subject.ID)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrSlotsBelowEnrolled
}

// Delete removes a subject that has no enrollments.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM subjects WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM enrollments WHERE subject_id = $1)`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrSubjectInUse
}

func (r *SubjectRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM subjects WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check subject: %w", err)
	}
	return exists, nil
}
