package dto

import "time"

// Report credit and slot bucket labels.
const (
	CreditBucketLow    = "0-10"
	CreditBucketMedium = "11-15"
	CreditBucketHigh   = "16-20"
	CreditBucketOver   = "20+"
	SlotBucketFull     = "Full"
	SlotBucketFew      = "1-5"
	SlotBucketSome     = "6-10"
	SlotBucketMany     = "10+"
)

// ReportResponse aggregates catalogue and enrollment statistics.
type ReportResponse struct {
	SubjectsByCareer     []CareerCount `json:"subjectsByCareer"`
	StudentsByCredits    []BucketCount `json:"studentsByCredits"`
	SubjectsBySlots      []BucketCount `json:"subjectsBySlots"`
	AverageCredits       string        `json:"averageCredits"`
	EnrolledStudentCount int           `json:"enrolledStudentCount"`
	GeneratedAt          time.Time     `json:"generatedAt"`
}

// CareerCount is the number of subjects offered for a career.
type CareerCount struct {
	Career string `json:"career" db:"career"`
	Count  int    `json:"count" db:"count"`
}

// BucketCount is a histogram bin.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// ExportFormat selects the report export renderer.
type ExportFormat string

// Supported export formats.
const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportFile is a rendered report ready to download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
