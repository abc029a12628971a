package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

// DashboardRepository reads the aggregates shown on the staff dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns the row totals of the catalogue tables.
func (r *DashboardRepository) Counts(ctx context.Context) (dto.DashboardCounts, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM teachers) AS teachers,
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM subjects) AS subjects,
        (SELECT COUNT(*) FROM enrollments) AS enrollments`
	var counts dto.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return dto.DashboardCounts{}, fmt.Errorf("dashboard counts: %w", err)
	}
	return counts, nil
}

// RecentTeachers returns the newest teachers with their subject counts.
func (r *DashboardRepository) RecentTeachers(ctx context.Context, limit int) ([]dto.RecentTeacher, error) {
	const query = `SELECT t.id, t.name, t.email, t.created_at, COUNT(s.id) AS subject_count
        FROM teachers t LEFT JOIN subjects s ON s.teacher_id = t.id
        GROUP BY t.id ORDER BY t.created_at DESC LIMIT $1`
	var teachers []dto.RecentTeacher
	if err := r.db.SelectContext(ctx, &teachers, query, limit); err != nil {
		return nil, fmt.Errorf("recent teachers: %w", err)
	}
	return teachers, nil
}

// RecentStudents returns the newest students.
func (r *DashboardRepository) RecentStudents(ctx context.Context, limit int) ([]dto.RecentStudent, error) {
	const query = `SELECT id, student_code, name, created_at FROM students ORDER BY created_at DESC LIMIT $1`
	var students []dto.RecentStudent
	if err := r.db.SelectContext(ctx, &students, query, limit); err != nil {
		return nil, fmt.Errorf("recent students: %w", err)
	}
	return students, nil
}

// RecentSubjects returns the newest subjects.
func (r *DashboardRepository) RecentSubjects(ctx context.Context, limit int) ([]dto.RecentSubject, error) {
	const query = `SELECT id, name, career, available_slots, total_slots, created_at FROM subjects ORDER BY created_at DESC LIMIT $1`
	var subjects []dto.RecentSubject
	if err := r.db.SelectContext(ctx, &subjects, query, limit); err != nil {
		return nil, fmt.Errorf("recent subjects: %w", err)
	}
	return subjects, nil
}
