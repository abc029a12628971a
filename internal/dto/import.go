package dto

// ImportKind names the collection a bulk import targets.
type ImportKind string

// Supported import kinds.
const (
	ImportTeachers ImportKind = "teachers"
	ImportSubjects ImportKind = "subjects"
	ImportStudents ImportKind = "students"
)

// TeacherImportItem is one entry of a teachers import file. Photo references
// in the file are ignored; imported records receive a generated avatar.
type TeacherImportItem struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Age    int      `json:"age" validate:"required,min=18,max=100"`
	Email  string   `json:"email" validate:"required,email"`
	Titles []string `json:"titles" validate:"dive,oneof=bachelor master phd professor"`
}

// SubjectImportItem is one entry of a subjects import file.
type SubjectImportItem struct {
	Name         string `json:"name" validate:"required,max=100"`
	Group        string `json:"group" validate:"required,max=50"`
	Career       string `json:"career" validate:"required,max=100"`
	Schedule     string `json:"schedule" validate:"max=255"`
	Credits      int    `json:"credits" validate:"required,min=1,max=4"`
	TotalSlots   int    `json:"total_slots" validate:"required,min=1"`
	TeacherEmail string `json:"teacher_email" validate:"omitempty,email"`
}

// StudentImportItem is one entry of a students import file.
type StudentImportItem struct {
	StudentCode string `json:"student_code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
}

// ImportFailure describes why a single item was rejected.
type ImportFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	Kind          ImportKind      `json:"kind"`
	Inserted      int             `json:"inserted"`
	Skipped       int             `json:"skipped"`
	Failed        int             `json:"failed"`
	Failures      []ImportFailure `json:"failures,omitempty"`
	AvatarsQueued int             `json:"avatarsQueued"`
}
