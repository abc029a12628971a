package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerCheckEnroll(t *testing.T) {
	checker := NewChecker(0)
	subject := &SubjectState{ID: "sub-1", Credits: 3, TotalSlots: 5, AvailableSlots: 2}

	tests := []struct {
		name       string
		current    []ActiveEnrollment
		subject    *SubjectState
		admissible bool
		reason     Reason
	}{
		{name: "admissible with no enrollments", subject: subject, admissible: true},
		{
			name:       "exactly at the credit limit",
			current:    []ActiveEnrollment{{StudentID: "stu-1", SubjectID: "a", Credits: 4}, {StudentID: "stu-1", SubjectID: "b", Credits: 4}, {StudentID: "stu-1", SubjectID: "c", Credits: 4}, {StudentID: "stu-1", SubjectID: "d", Credits: 4}, {StudentID: "stu-1", SubjectID: "e", Credits: 1}},
			subject:    subject,
			admissible: true,
		},
		{
			name:    "one credit over the limit",
			current: []ActiveEnrollment{{StudentID: "stu-1", SubjectID: "a", Credits: 4}, {StudentID: "stu-1", SubjectID: "b", Credits: 4}, {StudentID: "stu-1", SubjectID: "c", Credits: 4}, {StudentID: "stu-1", SubjectID: "d", Credits: 4}, {StudentID: "stu-1", SubjectID: "e", Credits: 2}},
			subject: subject,
			reason:  ReasonCreditLimitExceeded,
		},
		{name: "subject missing", reason: ReasonSubjectNotFound},
		{name: "no slots", subject: &SubjectState{ID: "sub-1", Credits: 3, TotalSlots: 5}, reason: ReasonNoAvailableSlots},
		{
			name:    "duplicate wins over missing subject",
			current: []ActiveEnrollment{{StudentID: "stu-1", SubjectID: "sub-1", Credits: 3}},
			reason:  ReasonAlreadyEnrolled,
		},
		{
			name:    "capacity checked before credits",
			current: []ActiveEnrollment{{StudentID: "stu-1", SubjectID: "a", Credits: 19}},
			subject: &SubjectState{ID: "sub-1", Credits: 3, TotalSlots: 1},
			reason:  ReasonNoAvailableSlots,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := checker.CheckEnroll("stu-1", "sub-1", tc.current, tc.subject)
			assert.Equal(t, tc.admissible, decision.Admissible)
			assert.Equal(t, tc.reason, decision.Reason)
			if tc.admissible {
				assert.Equal(t, "sub-1", decision.SubjectID)
				assert.Equal(t, -1, decision.SlotDelta)
			}
		})
	}
}

func TestCheckerCheckUnenroll(t *testing.T) {
	checker := NewChecker(DefaultMaxCredits)
	current := []ActiveEnrollment{{StudentID: "stu-1", SubjectID: "sub-1", Credits: 3}}

	decision := checker.CheckUnenroll("stu-1", "sub-1", current)
	assert.True(t, decision.Admissible)
	assert.Equal(t, "sub-1", decision.SubjectID)
	assert.Equal(t, 1, decision.SlotDelta)

	decision = checker.CheckUnenroll("stu-1", "sub-2", current)
	assert.False(t, decision.Admissible)
	assert.Equal(t, ReasonEnrollmentNotFound, decision.Reason)
}

func TestCheckerCustomLimit(t *testing.T) {
	checker := NewChecker(6)
	current := []ActiveEnrollment{{StudentID: "stu-1", SubjectID: "a", Credits: 4}}

	assert.True(t, checker.CheckEnroll("stu-1", "b", current, &SubjectState{ID: "b", Credits: 2, AvailableSlots: 1}).Admissible)
	assert.Equal(t, ReasonCreditLimitExceeded, checker.CheckEnroll("stu-1", "b", current, &SubjectState{ID: "b", Credits: 3, AvailableSlots: 1}).Reason)
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Success(3).Err(20))

	err := Failure(ReasonCreditLimitExceeded).Err(20)
	assert.EqualError(t, err, "student cannot exceed 20 credits")

	assert.Contains(t, Failure(ReasonTransactionFailed).Err(20).Error(), "retry")
}
