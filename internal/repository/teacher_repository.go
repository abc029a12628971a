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

	"github.com/noah-isme/school-admin-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers with the number of subjects each one teaches.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherListItem, int, error) {
	var args []interface{}
	where := ""
	if filter.Search != "" {
		where = " WHERE (LOWER(t.name) LIKE $1 OR LOWER(t.email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"name":       "t.name",
		"email":      "t.email",
		"age":        "t.age",
		"created_at": "t.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT t.id, t.name, t.age, t.email, t.titles, t.photo, t.created_at, t.updated_at, COUNT(s.id) AS subject_count
        FROM teachers t LEFT JOIN subjects s ON s.teacher_id = t.id%s
        GROUP BY t.id ORDER BY %s %s LIMIT %d OFFSET %d`, where, column, order, size, (page-1)*size)

	var teachers []models.TeacherListItem
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM teachers t"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID returns a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail returns a teacher by email address.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	return r.findOne(ctx, "email", email)
}

func (r *TeacherRepository) findOne(ctx context.Context, column, value string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT id, name, age, email, titles, photo, created_at, updated_at FROM teachers WHERE %s = $1`, column)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by %s: %w", column, err)
	}
	return &teacher, nil
}

// ExistsByEmail checks whether the email is taken, optionally excluding an ID.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.Titles == nil {
		teacher.Titles = []string{}
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, name, age, email, titles, photo, created_at, updated_at)
        VALUES (:id, :name, :age, :email, :titles, :photo, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies a teacher's profile fields.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	if teacher.Titles == nil {
		teacher.Titles = []string{}
	}
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET name = :name, age = :age, email = :email, titles = :titles, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Photo returns the stored photo reference of a teacher.
func (r *TeacherRepository) Photo(ctx context.Context, id string) (*string, error) {
	var photo *string
	if err := r.db.GetContext(ctx, &photo, `SELECT photo FROM teachers WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher photo: %w", err)
	}
	return photo, nil
}

// UpdatePhoto replaces the stored photo reference.
func (r *TeacherRepository) UpdatePhoto(ctx context.Context, id string, photo *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE teachers SET photo = $2, updated_at = $3 WHERE id = $1`, id, photo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update teacher photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a teacher and returns their photo reference. Subjects they
// taught keep existing with teacher_id cleared by the foreign key.
func (r *TeacherRepository) Delete(ctx context.Context, id string) (*string, error) {
	var photo *string
	if err := r.db.GetContext(ctx, &photo, `DELETE FROM teachers WHERE id = $1 RETURNING photo`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("delete teacher: %w", err)
	}
	return photo, nil
}
