package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/enrollment"
	"github.com/noah-isme/school-admin-api/internal/models"
)

// errSlotCounterDrift is returned when an unenroll finds the subject counter
// already at total_slots. The transaction is rolled back.
var errSlotCounterDrift = errors.New("subject slot counter already at capacity")

// EnrollmentRepository persists enrollments and the subject slot counters they
// consume. It implements enrollment.Store.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

var _ enrollment.Store = (*EnrollmentRepository)(nil)

type subjectStateRow struct {
	ID             string `db:"id"`
	Credits        int    `db:"credits"`
	TotalSlots     int    `db:"total_slots"`
	AvailableSlots int    `db:"available_slots"`
}

type activeEnrollmentRow struct {
	StudentID string `db:"student_id"`
	SubjectID string `db:"subject_id"`
	Credits   int    `db:"credits"`
}

// Snapshot reads the student's existence, the target subject and the
// student's current enrollments.
func (r *EnrollmentRepository) Snapshot(ctx context.Context, studentID, subjectID string) (*enrollment.Snapshot, error) {
	snap := &enrollment.Snapshot{}

	if err := r.db.GetContext(ctx, &snap.StudentExists, `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`, studentID); err != nil {
		return nil, fmt.Errorf("check student: %w", err)
	}

	var subject subjectStateRow
	err := r.db.GetContext(ctx, &subject, `SELECT id, credits, total_slots, available_slots FROM subjects WHERE id = $1`, subjectID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("load subject: %w", err)
	default:
		snap.Subject = &enrollment.SubjectState{
			ID:             subject.ID,
			Credits:        subject.Credits,
			TotalSlots:     subject.TotalSlots,
			AvailableSlots: subject.AvailableSlots,
		}
	}

	var rows []activeEnrollmentRow
	const query = `SELECT e.student_id, e.subject_id, s.credits FROM enrollments e JOIN subjects s ON s.id = e.subject_id WHERE e.student_id = $1`
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	snap.Enrollments = make([]enrollment.ActiveEnrollment, 0, len(rows))
	for _, row := range rows {
		snap.Enrollments = append(snap.Enrollments, enrollment.ActiveEnrollment(row))
	}
	return snap, nil
}

// CommitEnroll inserts the enrollment and consumes one slot in a single
// transaction. The student row is locked so concurrent requests for the same
// student serialize, and every admission rule is re-checked against committed
// state before the conditional decrement.
func (r *EnrollmentRepository) CommitEnroll(ctx context.Context, req enrollment.CommitEnrollRequest) (slots int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, classifyCommitErr("begin enroll", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM students WHERE id = $1 FOR UPDATE`, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, enrollment.ErrStudentMissing
		}
		return 0, classifyCommitErr("lock student", err)
	}

	var duplicate bool
	if err = tx.GetContext(ctx, &duplicate, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2)`, req.StudentID, req.SubjectID); err != nil {
		return 0, classifyCommitErr("check duplicate", err)
	}
	if duplicate {
		return 0, enrollment.ErrDuplicateEnrollment
	}

	var subject subjectStateRow
	if err = tx.GetContext(ctx, &subject, `SELECT id, credits, total_slots, available_slots FROM subjects WHERE id = $1 FOR UPDATE`, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, enrollment.ErrSubjectMissing
		}
		return 0, classifyCommitErr("lock subject", err)
	}
	if subject.AvailableSlots <= 0 {
		return 0, enrollment.ErrSlotsExhausted
	}

	var currentCredits int
	if err = tx.GetContext(ctx, &currentCredits, `SELECT COALESCE(SUM(s.credits), 0) FROM enrollments e JOIN subjects s ON s.id = e.subject_id WHERE e.student_id = $1`, req.StudentID); err != nil {
		return 0, classifyCommitErr("sum credits", err)
	}
	if currentCredits+subject.Credits > req.MaxCredits {
		return 0, enrollment.ErrCreditLimit
	}

	const decrement = `UPDATE subjects SET available_slots = available_slots - 1, updated_at = NOW() WHERE id = $1 AND available_slots > 0 RETURNING available_slots`
	if err = tx.GetContext(ctx, &slots, decrement, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, enrollment.ErrSlotsExhausted
		}
		return 0, classifyCommitErr("decrement slots", err)
	}

	const insert = `INSERT INTO enrollments (id, student_id, subject_id, enrollment_date) VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, insert, uuid.NewString(), req.StudentID, req.SubjectID, req.EnrolledAt); err != nil {
		switch {
		case IsUniqueViolation(err):
			return 0, enrollment.ErrDuplicateEnrollment
		case IsForeignKeyViolation(err):
			return 0, enrollment.ErrStudentMissing
		default:
			return 0, classifyCommitErr("insert enrollment", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, classifyCommitErr("commit enroll", err)
	}
	return slots, nil
}

// CommitUnenroll deletes the enrollment and returns its slot in a single
// transaction. The student row is locked first so an unenroll never overlaps
// a student delete.
func (r *EnrollmentRepository) CommitUnenroll(ctx context.Context, studentID, subjectID string) (slots int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, classifyCommitErr("begin unenroll", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM students WHERE id = $1 FOR UPDATE`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, enrollment.ErrEnrollmentMissing
		}
		return 0, classifyCommitErr("lock student", err)
	}

	var deletedID string
	if err = tx.GetContext(ctx, &deletedID, `DELETE FROM enrollments WHERE student_id = $1 AND subject_id = $2 RETURNING id`, studentID, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, enrollment.ErrEnrollmentMissing
		}
		return 0, classifyCommitErr("delete enrollment", err)
	}

	const increment = `UPDATE subjects SET available_slots = available_slots + 1, updated_at = NOW() WHERE id = $1 AND available_slots < total_slots RETURNING available_slots`
	if err = tx.GetContext(ctx, &slots, increment, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("increment slots for %s: %w", subjectID, errSlotCounterDrift)
		}
		return 0, classifyCommitErr("increment slots", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, classifyCommitErr("commit unenroll", err)
	}
	return slots, nil
}

// ListByStudent returns a student's enrollments joined with subject details.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, e.enrollment_date,
        s.name AS subject_name, s.subject_group, s.career, s.schedule, s.credits, s.available_slots, t.name AS teacher_name
        FROM enrollments e
        JOIN subjects s ON s.id = e.subject_id
        LEFT JOIN teachers t ON t.id = s.teacher_id
        WHERE e.student_id = $1
        ORDER BY e.enrollment_date ASC`
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return items, nil
}

// CountBySubject returns how many students are enrolled in a subject.
func (r *EnrollmentRepository) CountBySubject(ctx context.Context, subjectID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE subject_id = $1`, subjectID); err != nil {
		return 0, fmt.Errorf("count subject enrollments: %w", err)
	}
	return count, nil
}

// classifyCommitErr wraps err, marking retryable failures with
// enrollment.ErrTransient.
func classifyCommitErr(step string, err error) error {
	if IsTransient(err) {
		return fmt.Errorf("%s: %w: %v", step, enrollment.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}
