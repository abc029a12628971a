package models

import "time"

// Subject is a course offering with a bounded number of enrollment slots.
type Subject struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Group          string    `db:"subject_group" json:"group"`
	Career         string    `db:"career" json:"career"`
	Schedule       string    `db:"schedule" json:"schedule"`
	Credits        int       `db:"credits" json:"credits"`
	TotalSlots     int       `db:"total_slots" json:"total_slots"`
	AvailableSlots int       `db:"available_slots" json:"available_slots"`
	TeacherID      *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail adds the assigned teacher's name and the enrolled count.
type SubjectDetail struct {
	Subject
	TeacherName   *string `db:"teacher_name" json:"teacher_name,omitempty"`
	EnrolledCount int     `db:"enrolled_count" json:"enrolled_count"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Career    string
	Group     string
	TeacherID string
	Search    string
	OnlyOpen  bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateSubjectRequest is the payload for adding a subject.
type CreateSubjectRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Group      string  `json:"group" validate:"required,max=50"`
	Career     string  `json:"career" validate:"required,max=100"`
	Schedule   string  `json:"schedule" validate:"max=255"`
	Credits    int     `json:"credits" validate:"required,min=1,max=4"`
	TotalSlots int     `json:"total_slots" validate:"required,min=1"`
	TeacherID  *string `json:"teacher_id" validate:"omitempty,uuid"`
}

// UpdateSubjectRequest is the payload for editing a subject. Changing
// TotalSlots shifts AvailableSlots by the same amount.
type UpdateSubjectRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Group      string  `json:"group" validate:"required,max=50"`
	Career     string  `json:"career" validate:"required,max=100"`
	Schedule   string  `json:"schedule" validate:"max=255"`
	Credits    int     `json:"credits" validate:"required,min=1,max=4"`
	TotalSlots int     `json:"total_slots" validate:"required,min=1"`
	TeacherID  *string `json:"teacher_id" validate:"omitempty,uuid"`
}
