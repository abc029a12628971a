package enrollment

import (
	"context"
	"errors"
	"time"
)

// Errors a Store reports from a commit. The ledger maps them onto reasons.
var (
	ErrDuplicateEnrollment = errors.New("enrollment already exists")
	ErrSlotsExhausted      = errors.New("subject has no available slots")
	ErrSubjectMissing      = errors.New("subject does not exist")
	ErrStudentMissing      = errors.New("student does not exist")
	ErrCreditLimit         = errors.New("credit limit exceeded")
	ErrEnrollmentMissing   = errors.New("enrollment does not exist")
	// ErrTransient marks a commit that may succeed if attempted again.
	ErrTransient = errors.New("transient store failure")
)

// Snapshot is the state the checker evaluates for one student/subject pair.
type Snapshot struct {
	StudentExists bool
	Subject       *SubjectState
	Enrollments   []ActiveEnrollment
}

// CommitEnrollRequest describes an enroll transition to apply atomically.
type CommitEnrollRequest struct {
	StudentID  string
	SubjectID  string
	EnrolledAt time.Time
	MaxCredits int
}

// Store persists enrollments and slot counters. CommitEnroll and
// CommitUnenroll must apply the enrollment change and the slot change together
// or not at all, and must re-validate slots, duplicates and credits against
// the committed state so concurrent requests cannot over-subscribe a subject.
type Store interface {
	Snapshot(ctx context.Context, studentID, subjectID string) (*Snapshot, error)
	CommitEnroll(ctx context.Context, req CommitEnrollRequest) (int, error)
	CommitUnenroll(ctx context.Context, studentID, subjectID string) (int, error)
}
