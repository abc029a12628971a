package enrollment

// DefaultMaxCredits is the credit load a student may carry across all active
// enrollments.
const DefaultMaxCredits = 20

// ActiveEnrollment is a student's enrollment together with the credit value of
// its subject.
type ActiveEnrollment struct {
	StudentID string
	SubjectID string
	Credits   int
}

// SubjectState is the slice of a subject the checker needs.
type SubjectState struct {
	ID             string
	Credits        int
	TotalSlots     int
	AvailableSlots int
}

// Decision is the checker verdict for a requested transition.
type Decision struct {
	Admissible bool
	Reason     Reason
	SubjectID  string
	// SlotDelta is the change to apply to the subject's available slots.
	SlotDelta int
}

// Checker decides whether enroll and unenroll intents are admissible against a
// snapshot. It performs no I/O.
type Checker struct {
	MaxCredits int
}

// NewChecker returns a checker enforcing maxCredits, falling back to
// DefaultMaxCredits when maxCredits is not positive.
func NewChecker(maxCredits int) Checker {
	if maxCredits <= 0 {
		maxCredits = DefaultMaxCredits
	}
	return Checker{MaxCredits: maxCredits}
}

// CheckEnroll evaluates the duplicate, existence, capacity and credit rules in
// that order.
func (c Checker) CheckEnroll(studentID, subjectID string, current []ActiveEnrollment, subject *SubjectState) Decision {
	if findEnrollment(current, studentID, subjectID) {
		return Decision{Reason: ReasonAlreadyEnrolled}
	}
	if subject == nil {
		return Decision{Reason: ReasonSubjectNotFound}
	}
	if subject.AvailableSlots <= 0 {
		return Decision{Reason: ReasonNoAvailableSlots}
	}
	if TotalCredits(current)+subject.Credits > c.maxCredits() {
		return Decision{Reason: ReasonCreditLimitExceeded}
	}
	return Decision{Admissible: true, SubjectID: subject.ID, SlotDelta: -1}
}

// CheckUnenroll requires an active enrollment for the pair.
func (c Checker) CheckUnenroll(studentID, subjectID string, current []ActiveEnrollment) Decision {
	if !findEnrollment(current, studentID, subjectID) {
		return Decision{Reason: ReasonEnrollmentNotFound}
	}
	return Decision{Admissible: true, SubjectID: subjectID, SlotDelta: 1}
}

// TotalCredits sums the credit values of the given enrollments.
func TotalCredits(enrollments []ActiveEnrollment) int {
	total := 0
	for _, e := range enrollments {
		total += e.Credits
	}
	return total
}

func (c Checker) maxCredits() int {
	if c.MaxCredits <= 0 {
		return DefaultMaxCredits
	}
	return c.MaxCredits
}

func findEnrollment(enrollments []ActiveEnrollment, studentID, subjectID string) bool {
	for _, e := range enrollments {
		if e.StudentID == studentID && e.SubjectID == subjectID {
			return true
		}
	}
	return false
}
