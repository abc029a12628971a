package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentCode string    `db:"student_code" json:"student_code"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Photo       *string   `db:"photo" json:"photo,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentListItem is a student row enriched with enrollment totals.
type StudentListItem struct {
	Student
	EnrollmentCount int `db:"enrollment_count" json:"enrollment_count"`
	TotalCredits    int `db:"total_credits" json:"total_credits"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains a student with their enrollments and the subjects
// still open to them.
type StudentDetail struct {
	Student
	Enrollments       []EnrollmentDetail `json:"enrollments"`
	TotalCredits      int                `json:"total_credits"`
	MaxCredits        int                `json:"max_credits"`
	AvailableSubjects []Subject          `json:"available_subjects"`
	PhotoURL          string             `json:"photo_url,omitempty"`
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	StudentCode string `json:"student_code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
}

// UpdateStudentRequest is the payload for editing a student.
type UpdateStudentRequest struct {
	StudentCode string `json:"student_code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
}
