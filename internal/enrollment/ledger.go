package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	opEnroll   = "enroll"
	opUnenroll = "unenroll"
)

// LedgerConfig tunes commit behaviour.
type LedgerConfig struct {
	MaxCredits    int
	CommitTimeout time.Duration
	MaxRetries    uint64
	RetryBase     time.Duration
}

// Observer receives one notification per finished transition.
type Observer interface {
	ObserveEnrollmentTransition(op, outcome string)
}

// Ledger applies enroll and unenroll transitions against a Store.
type Ledger struct {
	checker  Checker
	cfg      LedgerConfig
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// NewLedger constructs a ledger. A nil logger or observer is allowed.
func NewLedger(cfg LedgerConfig, logger *zap.Logger, observer Observer) *Ledger {
	if cfg.MaxCredits <= 0 {
		cfg.MaxCredits = DefaultMaxCredits
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 5 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 20 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		checker:  NewChecker(cfg.MaxCredits),
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// MaxCredits returns the credit limit the ledger enforces.
func (l *Ledger) MaxCredits() int {
	return l.cfg.MaxCredits
}

// Enroll adds subjectID to studentID's enrollments and consumes one slot.
func (l *Ledger) Enroll(ctx context.Context, store Store, studentID, subjectID string) Result {
	snap, err := store.Snapshot(ctx, studentID, subjectID)
	if err != nil {
		return l.finish(opEnroll, studentID, subjectID, Failure(ReasonTransactionFailed), err)
	}
	if !snap.StudentExists {
		return l.finish(opEnroll, studentID, subjectID, Failure(ReasonStudentNotFound), nil)
	}

	decision := l.checker.CheckEnroll(studentID, subjectID, snap.Enrollments, snap.Subject)
	if !decision.Admissible {
		return l.finish(opEnroll, studentID, subjectID, Failure(decision.Reason), nil)
	}

	req := CommitEnrollRequest{
		StudentID:  studentID,
		SubjectID:  subjectID,
		EnrolledAt: l.now().UTC(),
		MaxCredits: l.cfg.MaxCredits,
	}
	var slots int
	err = l.commit(ctx, func(ctx context.Context) error {
		var commitErr error
		slots, commitErr = store.CommitEnroll(ctx, req)
		return commitErr
	})
	if err != nil {
		return l.finish(opEnroll, studentID, subjectID, Failure(reasonFor(err)), err)
	}
	return l.finish(opEnroll, studentID, subjectID, Success(slots), nil)
}

// Unenroll removes the enrollment and returns its slot to the subject.
func (l *Ledger) Unenroll(ctx context.Context, store Store, studentID, subjectID string) Result {
	snap, err := store.Snapshot(ctx, studentID, subjectID)
	if err != nil {
		return l.finish(opUnenroll, studentID, subjectID, Failure(ReasonTransactionFailed), err)
	}

	decision := l.checker.CheckUnenroll(studentID, subjectID, snap.Enrollments)
	if !decision.Admissible {
		return l.finish(opUnenroll, studentID, subjectID, Failure(decision.Reason), nil)
	}

	var slots int
	err = l.commit(ctx, func(ctx context.Context) error {
		var commitErr error
		slots, commitErr = store.CommitUnenroll(ctx, studentID, subjectID)
		return commitErr
	})
	if err != nil {
		return l.finish(opUnenroll, studentID, subjectID, Failure(reasonFor(err)), err)
	}
	return l.finish(opUnenroll, studentID, subjectID, Success(slots), nil)
}

func (l *Ledger) commit(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(l.cfg.MaxRetries, retry.NewExponential(l.cfg.RetryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, l.cfg.CommitTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if errors.Is(err, ErrTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (l *Ledger) finish(op, studentID, subjectID string, res Result, err error) Result {
	outcome := "ok"
	if !res.OK {
		outcome = string(res.Reason)
	}
	if l.observer != nil {
		l.observer.ObserveEnrollmentTransition(op, outcome)
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("student_id", studentID),
		zap.String("subject_id", subjectID),
	}
	switch {
	case res.OK:
		l.logger.Info("enrollment transition applied", append(fields, zap.Int("available_slots", res.AvailableSlots))...)
	case res.Reason == ReasonTransactionFailed:
		l.logger.Error("enrollment transition failed", append(fields, zap.Error(err))...)
	default:
		l.logger.Warn("enrollment transition refused", append(fields, zap.String("reason", string(res.Reason)))...)
	}
	return res
}

// reasonFor maps a commit error onto a failure reason. Unknown errors are
// treated as transaction failures so the caller can retry.
func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrDuplicateEnrollment):
		return ReasonAlreadyEnrolled
	case errors.Is(err, ErrSubjectMissing):
		return ReasonSubjectNotFound
	case errors.Is(err, ErrStudentMissing):
		return ReasonStudentNotFound
	case errors.Is(err, ErrSlotsExhausted):
		return ReasonNoAvailableSlots
	case errors.Is(err, ErrCreditLimit):
		return ReasonCreditLimitExceeded
	case errors.Is(err, ErrEnrollmentMissing):
		return ReasonEnrollmentNotFound
	default:
		return ReasonTransactionFailed
	}
}
