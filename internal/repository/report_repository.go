package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

// ReportRepository reads the raw figures behind the statistics report.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SubjectsByCareer counts subjects per career, largest first.
func (r *ReportRepository) SubjectsByCareer(ctx context.Context) ([]dto.CareerCount, error) {
	const query = `SELECT career, COUNT(*) AS count FROM subjects GROUP BY career ORDER BY count DESC, career ASC`
	var rows []dto.CareerCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("subjects by career: %w", err)
	}
	return rows, nil
}

// StudentCreditLoads returns the enrolled credit total of every student that
// holds at least one enrollment.
func (r *ReportRepository) StudentCreditLoads(ctx context.Context) ([]int, error) {
	const query = `SELECT SUM(s.credits) AS credits FROM enrollments e
        JOIN subjects s ON s.id = e.subject_id
        GROUP BY e.student_id`
	var loads []int
	if err := r.db.SelectContext(ctx, &loads, query); err != nil {
		return nil, fmt.Errorf("student credit loads: %w", err)
	}
	return loads, nil
}

// AvailableSlots returns the remaining capacity of every subject.
func (r *ReportRepository) AvailableSlots(ctx context.Context) ([]int, error) {
	var slots []int
	if err := r.db.SelectContext(ctx, &slots, `SELECT available_slots FROM subjects`); err != nil {
		return nil, fmt.Errorf("subject slots: %w", err)
	}
	return slots, nil
}
