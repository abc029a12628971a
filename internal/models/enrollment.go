package models

import "time"

// Enrollment links a student to a subject. At most one exists per pair.
type Enrollment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
}

// EnrollmentDetail enriches Enrollment with the subject it references.
type EnrollmentDetail struct {
	Enrollment
	SubjectName    string  `db:"subject_name" json:"subject_name"`
	SubjectGroup   string  `db:"subject_group" json:"subject_group"`
	Career         string  `db:"career" json:"career"`
	Schedule       string  `db:"schedule" json:"schedule"`
	Credits        int     `db:"credits" json:"credits"`
	AvailableSlots int     `db:"available_slots" json:"available_slots"`
	TeacherName    *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// EnrollmentResult is returned by enroll and unenroll endpoints.
type EnrollmentResult struct {
	StudentID      string `json:"student_id"`
	SubjectID      string `json:"subject_id"`
	AvailableSlots int    `json:"available_slots"`
	TotalCredits   int    `json:"total_credits"`
}
