package enrollment

import (
	"fmt"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

// Reason identifies why an enroll or unenroll request was refused.
type Reason string

// Failure reasons surfaced to callers. Everything except ReasonTransactionFailed
// is a policy outcome the caller can act on.
const (
	ReasonAlreadyEnrolled     Reason = "ALREADY_ENROLLED"
	ReasonSubjectNotFound     Reason = "SUBJECT_NOT_FOUND"
	ReasonStudentNotFound     Reason = "STUDENT_NOT_FOUND"
	ReasonNoAvailableSlots    Reason = "NO_AVAILABLE_SLOTS"
	ReasonCreditLimitExceeded Reason = "CREDIT_LIMIT_EXCEEDED"
	ReasonEnrollmentNotFound  Reason = "ENROLLMENT_NOT_FOUND"
	ReasonTransactionFailed   Reason = "TRANSACTION_FAILED"
)

// Result is the outcome of a ledger transition.
type Result struct {
	OK             bool   `json:"ok"`
	AvailableSlots int    `json:"available_slots"`
	Reason         Reason `json:"reason,omitempty"`
}

// Success builds a successful result carrying the subject's new slot count.
func Success(availableSlots int) Result {
	return Result{OK: true, AvailableSlots: availableSlots}
}

// Failure builds a refused result.
func Failure(reason Reason) Result {
	return Result{Reason: reason}
}

// Err converts a failed result into the API error for its reason. It returns
// nil for successful results.
func (r Result) Err(maxCredits int) error {
	if r.OK {
		return nil
	}
	switch r.Reason {
	case ReasonAlreadyEnrolled:
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	case ReasonSubjectNotFound:
		return appErrors.Clone(appErrors.ErrSubjectNotFound, "")
	case ReasonStudentNotFound:
		return appErrors.Clone(appErrors.ErrStudentNotFound, "")
	case ReasonNoAvailableSlots:
		return appErrors.Clone(appErrors.ErrNoAvailableSlots, "")
	case ReasonCreditLimitExceeded:
		return appErrors.Clone(appErrors.ErrCreditLimitExceeded, fmt.Sprintf("student cannot exceed %d credits", maxCredits))
	case ReasonEnrollmentNotFound:
		return appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
	default:
		return appErrors.Clone(appErrors.ErrTransactionFailed, "")
	}
}
