// Package results provides the business logic for the exam results
// import and reporting pipeline. This package has no HTTP dependencies
// and can be driven by any transport.
package results

import (
	"time"
)

// Subject is a single subject score resolved for a student.
type Subject struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// StudentRecord is the canonical persisted form of one student's result.
// Re-importing the same student_id replaces the record wholesale; there
// is no field-level merge.
type StudentRecord struct {
	StudentID      string    `json:"student_id"`
	Name           string    `json:"name"`
	Average        float64   `json:"average"`
	Grade          string    `json:"grade"`
	Subjects       []Subject `json:"subjects"`
	SchoolName     string    `json:"school_name,omitempty"`
	Region         string    `json:"region,omitempty"`
	Administration string    `json:"administration,omitempty"`
	SchoolCode     string    `json:"school_code,omitempty"`
	ClassName      string    `json:"class_name,omitempty"`
	Section        string    `json:"section,omitempty"`
	StageID        string    `json:"educational_stage_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// ColumnMapping declares how source columns map onto StudentRecord fields.
// StudentIDColumn, NameColumn, and at least one subject column are required;
// the rest are optional and resolve to empty strings when unmapped.
type ColumnMapping struct {
	StudentIDColumn      string   `json:"student_id_column"`
	NameColumn           string   `json:"name_column"`
	SubjectColumns       []string `json:"subject_columns"`
	TotalColumn          string   `json:"total_column,omitempty"`
	ClassColumn          string   `json:"class_column,omitempty"`
	SectionColumn        string   `json:"section_column,omitempty"`
	SchoolColumn         string   `json:"school_column,omitempty"`
	AdministrationColumn string   `json:"administration_column,omitempty"`
	SchoolCodeColumn     string   `json:"school_code_column,omitempty"`
}

// MappingTemplate is a saved, reusable ColumnMapping, optionally scoped
// to an educational stage. UsageCount increments each time the template
// is applied and never decreases.
type MappingTemplate struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	StageID     string        `json:"stage_id,omitempty"`
	Mapping     ColumnMapping `json:"mapping"`
	IsPublic    bool          `json:"is_public"`
	UsageCount  int           `json:"usage_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ValidationIssue is one error, warning, or suggestion produced by the
// validation engine. Column and Count carry optional context.
type ValidationIssue struct {
	Message string `json:"message"`
	Column  string `json:"column,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// ValidationStatistics summarizes the shape and quality of a batch.
type ValidationStatistics struct {
	TotalRows    int `json:"total_rows"`
	TotalColumns int `json:"total_columns"`
	QualityScore int `json:"quality_score"`
}

// ValidationResult is the outcome of validating one candidate batch.
// IsValid is true iff Errors is empty. Transient; never persisted.
type ValidationResult struct {
	IsValid     bool                 `json:"is_valid"`
	Statistics  ValidationStatistics `json:"statistics"`
	Errors      []ValidationIssue    `json:"errors"`
	Warnings    []ValidationIssue    `json:"warnings"`
	Suggestions []ValidationIssue    `json:"suggestions"`
}

// ImportResult reports a committed upload batch.
type ImportResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	TotalProcessed int    `json:"total_processed"`
}

// ImportEntry is one line of the import history log.
type ImportEntry struct {
	ID         string    `json:"id"`
	StageID    string    `json:"stage_id,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	TotalRows  int       `json:"total_rows"`
	Inserted   int       `json:"inserted"`
	DurationMs int       `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// OverviewStats are the dashboard headline numbers. All values are
// rounded to the nearest integer; an empty store yields zeros.
type OverviewStats struct {
	TotalStudents int `json:"total_students"`
	HighestScore  int `json:"highest_score"`
	AverageScore  int `json:"average_score"`
	LowestScore   int `json:"lowest_score"`
}

// GradeBucket is one slice of the grade distribution.
type GradeBucket struct {
	Grade      string  `json:"grade"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SchoolSummary is a per-school/region rollup.
type SchoolSummary struct {
	SchoolName     string  `json:"school_name"`
	Region         string  `json:"region,omitempty"`
	Administration string  `json:"administration,omitempty"`
	Count          int     `json:"count"`
	Average        float64 `json:"average"`
	PassRate       float64 `json:"pass_rate"`
	Lowest         float64 `json:"lowest"`
	Highest        float64 `json:"highest"`
}

// SubjectSummary is a per-subject rollup across all students.
type SubjectSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Lowest  float64 `json:"lowest"`
	Highest float64 `json:"highest"`
}

// AggregateStats bundles all derived statistics for one stats request.
// Computed fresh from the current store contents; never cached.
type AggregateStats struct {
	Overview          OverviewStats   `json:"overview"`
	GradeDistribution []GradeBucket   `json:"grade_distribution"`
	TopStudents       []StudentRecord `json:"top_students"`
	Schools           []SchoolSummary `json:"schools"`
	Subjects          []SubjectSummary `json:"subjects"`
}

// StudentFilter narrows read-side queries. Empty fields match everything.
type StudentFilter struct {
	StageID        string
	Region         string
	Administration string
}
