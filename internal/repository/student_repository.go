package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters together with their
// enrollment totals.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error) {
	var args []interface{}
	where := ""
	if filter.Search != "" {
		where = " WHERE (LOWER(st.name) LIKE $1 OR LOWER(st.student_code) LIKE $1 OR LOWER(st.email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"name":         "st.name",
		"student_code": "st.student_code",
		"created_at":   "st.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "st.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT st.id, st.student_code, st.name, st.email, st.photo, st.created_at, st.updated_at,
        COUNT(e.id) AS enrollment_count, COALESCE(SUM(sub.credits), 0) AS total_credits
        FROM students st
        LEFT JOIN enrollments e ON e.student_id = st.id
        LEFT JOIN subjects sub ON sub.id = e.subject_id%s
        GROUP BY st.id ORDER BY %s %s LIMIT %d OFFSET %d`, where, column, order, size, offset)

	var students []models.StudentListItem
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students st"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_code, name, email, photo, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ExistsByCode checks if a student with the given code exists, optionally
// excluding an ID.
func (r *StudentRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student code: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_code, name, email, photo, created_at, updated_at)
        VALUES (:id, :student_code, :name, :email, :photo, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_code = :student_code, name = :name, email = :email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Photo returns the stored photo reference of a student.
func (r *StudentRepository) Photo(ctx context.Context, id string) (*string, error) {
	var photo *string
	if err := r.db.GetContext(ctx, &photo, `SELECT photo FROM students WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student photo: %w", err)
	}
	return photo, nil
}

// UpdatePhoto replaces the stored photo reference.
func (r *StudentRepository) UpdatePhoto(ctx context.Context, id string, photo *string) error {
	const query = `UPDATE students SET photo = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, photo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a student and their enrollments, returning each freed slot
// to its subject in the same transaction. Only the enrollments this
// transaction actually removed release a slot. It returns the deleted
// student's photo reference, if any.
func (r *StudentRepository) Delete(ctx context.Context, id string) (photo *string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &photo, `SELECT photo FROM students WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock student: %w", err)
	}

	var subjectIDs []string
	if err = tx.SelectContext(ctx, &subjectIDs, `DELETE FROM enrollments WHERE student_id = $1 RETURNING subject_id`, id); err != nil {
		return nil, fmt.Errorf("delete student enrollments: %w", err)
	}
	if len(subjectIDs) > 0 {
		const release = `UPDATE subjects SET available_slots = available_slots + 1, updated_at = NOW() WHERE id = ANY($1)`
		if _, err = tx.ExecContext(ctx, release, pq.Array(subjectIDs)); err != nil {
			return nil, fmt.Errorf("release student slots: %w", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete student: %w", err)
	}
	return photo, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
