package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher titles accepted on input.
const (
	TitleBachelor  = "bachelor"
	TitleMaster    = "master"
	TitlePhD       = "phd"
	TitleProfessor = "professor"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Age       int            `db:"age" json:"age"`
	Email     string         `db:"email" json:"email"`
	Titles    pq.StringArray `db:"titles" json:"titles"`
	Photo     *string        `db:"photo" json:"photo,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherListItem is a teacher row with the number of subjects they teach.
type TeacherListItem struct {
	Teacher
	SubjectCount int `db:"subject_count" json:"subject_count"`
}

// TeacherDetail contains a teacher and the subjects assigned to them.
type TeacherDetail struct {
	Teacher
	Subjects []Subject `json:"subjects"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateTeacherRequest is the payload for adding a teacher.
type CreateTeacherRequest struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Age    int      `json:"age" validate:"required,min=18,max=100"`
	Email  string   `json:"email" validate:"required,email"`
	Titles []string `json:"titles" validate:"dive,oneof=bachelor master phd professor"`
}

// UpdateTeacherRequest is the payload for editing a teacher.
type UpdateTeacherRequest struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Age    int      `json:"age" validate:"required,min=18,max=100"`
	Email  string   `json:"email" validate:"required,email"`
	Titles []string `json:"titles" validate:"dive,oneof=bachelor master phd professor"`
}
