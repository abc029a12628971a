package dto

import "time"

// DashboardResponse is the landing-page summary for staff.
type DashboardResponse struct {
	Counts         DashboardCounts `json:"counts"`
	RecentTeachers []RecentTeacher `json:"recentTeachers"`
	RecentStudents []RecentStudent `json:"recentStudents"`
	RecentSubjects []RecentSubject `json:"recentSubjects"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// DashboardCounts holds table totals.
type DashboardCounts struct {
	Teachers    int `json:"teachers" db:"teachers"`
	Students    int `json:"students" db:"students"`
	Subjects    int `json:"subjects" db:"subjects"`
	Enrollments int `json:"enrollments" db:"enrollments"`
}

// RecentTeacher is a recently added teacher with the number of subjects taught.
type RecentTeacher struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	SubjectCount int       `json:"subjectCount" db:"subject_count"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// RecentStudent is a recently registered student.
type RecentStudent struct {
	ID          string    `json:"id" db:"id"`
	StudentCode string    `json:"studentCode" db:"student_code"`
	Name        string    `json:"name" db:"name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// RecentSubject is a recently created subject with its remaining capacity.
type RecentSubject struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Career         string    `json:"career" db:"career"`
	AvailableSlots int       `json:"availableSlots" db:"available_slots"`
	TotalSlots     int       `json:"totalSlots" db:"total_slots"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
