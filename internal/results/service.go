package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/natiga/results/internal/logging"
)

// Storage is the persistence surface the service needs. *store.Store
// satisfies it; tests substitute an in-memory fake.
type Storage interface {
	ReplaceStudents(ctx context.Context, records []StudentRecord, importID string) error
	ListStudents(ctx context.Context, f StudentFilter) ([]StudentRecord, error)
	SearchStudents(ctx context.Context, query, stageID string) ([]StudentRecord, error)
	GetStudent(ctx context.Context, studentID string) (*StudentRecord, error)
	ListStudentsPage(ctx context.Context, f StudentFilter, limit, offset int) ([]StudentRecord, int64, error)
	DeleteStudent(ctx context.Context, studentID string) error
	DeleteStudentsByStage(ctx context.Context, stageID string) (int64, error)

	ListTemplates(ctx context.Context, stageID string) ([]MappingTemplate, error)
	CreateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error)
	GetTemplate(ctx context.Context, id string) (*MappingTemplate, error)
	ApplyTemplate(ctx context.Context, id string) (*ColumnMapping, error)
	DeleteTemplate(ctx context.Context, id string) error

	RecordImport(ctx context.Context, e ImportEntry) (string, error)
	ListImports(ctx context.Context, limit int) ([]ImportEntry, error)
}

// Service wires parsing, validation, and storage into the operations
// the HTTP layer exposes.
type Service struct {
	store  Storage
	locks  *StageLocks
	maxTop int
}

func NewService(store Storage, lockWait time.Duration) *Service {
	return &Service{
		store:  store,
		locks:  NewStageLocks(lockWait),
		maxTop: 10,
	}
}

// UploadRequest is one parsed-and-mapped batch ready for validation.
type UploadRequest struct {
	Table    *SourceTable
	Mapping  ColumnMapping
	StageID  string
	Region   string
	FileName string
}

// ProcessUpload validates and commits a batch. The batch is rejected
// wholesale when validation produces any blocking error; no partial
// imports. While a stage's batch is committing, concurrent uploads for
// the same stage wait up to the configured window and then fail with
// ErrImportBusy.
func (s *Service) ProcessUpload(ctx context.Context, req UploadRequest) (*ImportResult, error) {
	candidates, result, err := s.resolveAndValidate(req.Table, req.Mapping)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, &BatchInvalidError{Result: result}
	}

	records := make([]StudentRecord, len(candidates))
	now := time.Now().UTC()
	for i, c := range candidates {
		rec := c.Record
		if rec.StageID == "" {
			rec.StageID = req.StageID
		}
		if rec.Region == "" {
			rec.Region = req.Region
		}
		rec.CreatedAt = now
		records[i] = rec
	}

	if err := s.locks.Acquire(ctx, req.StageID); err != nil {
		return nil, err
	}
	defer s.locks.Release(req.StageID)

	importID := uuid.NewString()
	started := time.Now()
	if err := s.store.ReplaceStudents(ctx, records, importID); err != nil {
		return nil, err
	}
	// The batch is durable at this point. A history-log failure is only
	// logged; it must not be surfaced as a failed import.
	if _, err := s.store.RecordImport(ctx, ImportEntry{
		ID:         importID,
		StageID:    req.StageID,
		FileName:   req.FileName,
		TotalRows:  len(req.Table.Rows),
		Inserted:   len(records),
		DurationMs: int(time.Since(started).Milliseconds()),
	}); err != nil {
		logging.FromContext(ctx).Error("record import history",
			"import_id", importID,
			"stage_id", req.StageID,
			"error", err,
		)
	}

	return &ImportResult{
		Success:        true,
		Message:        fmt.Sprintf("Successfully processed %d students", len(records)),
		TotalProcessed: len(records),
	}, nil
}

// ValidateUpload runs the validation engine without writing anything.
// A template id, when given, supplies the mapping; validation never
// counts as template usage.
func (s *Service) ValidateUpload(ctx context.Context, table *SourceTable, mapping ColumnMapping, templateID string) (*ValidationResult, error) {
	if templateID != "" {
		t, err := s.store.GetTemplate(ctx, templateID)
		if err != nil {
			return nil, err
		}
		mapping = t.Mapping
	}

	_, result, err := s.resolveAndValidate(table, mapping)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UploadRecords commits pre-shaped records directly, bypassing column
// mapping. Used by clients that already speak the canonical format.
// The same all-or-nothing and identity rules apply.
func (s *Service) UploadRecords(ctx context.Context, records []StudentRecord, stageID string) (*ImportResult, error) {
	if len(records) == 0 {
		return nil, &ParseError{Msg: "no students to upload"}
	}

	now := time.Now().UTC()
	for i := range records {
		r := &records[i]
		if strings.TrimSpace(r.StudentID) == "" {
			return nil, &MappingError{Field: "student_id", Msg: fmt.Sprintf("record %d is missing a student id", i+1)}
		}
		if strings.TrimSpace(r.Name) == "" {
			return nil, &MappingError{Field: "name", Msg: fmt.Sprintf("record %d is missing a name", i+1)}
		}
		if r.Grade == "" {
			r.Grade = GradeFor(r.Average)
		}
		if r.StageID == "" {
			r.StageID = stageID
		}
		r.CreatedAt = now
	}

	candidates := make([]Candidate, len(records))
	for i, r := range records {
		candidates[i] = Candidate{Record: r}
	}
	result := &ValidationResult{
		Statistics: ValidationStatistics{TotalRows: len(records)},
	}
	checkDuplicateIDs(candidates, result)
	checkScoreRange(candidates, result)
	result.IsValid = len(result.Errors) == 0
	result.Statistics.QualityScore = qualityScore(candidates, result)
	if !result.IsValid {
		return nil, &BatchInvalidError{Result: result}
	}

	if err := s.locks.Acquire(ctx, stageID); err != nil {
		return nil, err
	}
	defer s.locks.Release(stageID)

	importID := uuid.NewString()
	started := time.Now()
	if err := s.store.ReplaceStudents(ctx, records, importID); err != nil {
		return nil, err
	}
	if _, err := s.store.RecordImport(ctx, ImportEntry{
		ID:         importID,
		StageID:    stageID,
		FileName:   "direct-upload",
		TotalRows:  len(records),
		Inserted:   len(records),
		DurationMs: int(time.Since(started).Milliseconds()),
	}); err != nil {
		logging.FromContext(ctx).Error("record import history",
			"import_id", importID,
			"stage_id", stageID,
			"error", err,
		)
	}

	return &ImportResult{
		Success:        true,
		Message:        fmt.Sprintf("Successfully uploaded %d students", len(records)),
		TotalProcessed: len(records),
	}, nil
}

func (s *Service) resolveAndValidate(table *SourceTable, mapping ColumnMapping) ([]Candidate, *ValidationResult, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, nil, &ParseError{Msg: "no data rows found"}
	}
	if err := mapping.Validate(table); err != nil {
		return nil, nil, err
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		return nil, nil, err
	}
	result := ValidateBatch(candidates, table, mapping)
	return candidates, result, nil
}

// Stats computes the full dashboard aggregate for one stage scope.
func (s *Service) Stats(ctx context.Context, f StudentFilter) (*AggregateStats, error) {
	records, err := s.store.ListStudents(ctx, f)
	if err != nil {
		return nil, err
	}
	return Aggregate(records, s.maxTop), nil
}

// Top returns the n highest averages within one stage scope.
func (s *Service) Top(ctx context.Context, f StudentFilter, n int) ([]StudentRecord, error) {
	records, err := s.store.ListStudents(ctx, f)
	if err != nil {
		return nil, err
	}
	return TopN(records, n), nil
}

// Search finds students by partial name or id.
func (s *Service) Search(ctx context.Context, query, stageID string) ([]StudentRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ParseError{Msg: "search query is required"}
	}
	return s.store.SearchStudents(ctx, query, stageID)
}

func (s *Service) GetStudent(ctx context.Context, studentID string) (*StudentRecord, error) {
	return s.store.GetStudent(ctx, studentID)
}

// ListStudents returns one admin page plus the total match count.
func (s *Service) ListStudents(ctx context.Context, f StudentFilter, limit, offset int) ([]StudentRecord, int64, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListStudentsPage(ctx, f, limit, offset)
}

func (s *Service) DeleteStudent(ctx context.Context, studentID string) error {
	return s.store.DeleteStudent(ctx, studentID)
}

func (s *Service) DeleteStudentsByStage(ctx context.Context, stageID string) (int64, error) {
	return s.store.DeleteStudentsByStage(ctx, stageID)
}

func (s *Service) ListTemplates(ctx context.Context, stageID string) ([]MappingTemplate, error) {
	return s.store.ListTemplates(ctx, stageID)
}

func (s *Service) CreateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error) {
	if err := validateMappingShape(t.Mapping); err != nil {
		return nil, err
	}
	return s.store.CreateTemplate(ctx, t)
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*MappingTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

// UseTemplate marks one application of a template and hands back its
// mapping for the caller to apply.
func (s *Service) UseTemplate(ctx context.Context, id string) (*ColumnMapping, error) {
	return s.store.ApplyTemplate(ctx, id)
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.DeleteTemplate(ctx, id)
}

func (s *Service) ListImports(ctx context.Context, limit int) ([]ImportEntry, error) {
	return s.store.ListImports(ctx, limit)
}

// validateMappingShape rejects templates whose mapping could never
// produce a record, independent of any concrete source table.
func validateMappingShape(m ColumnMapping) error {
	if strings.TrimSpace(m.StudentIDColumn) == "" {
		return &MappingError{Field: "student_id", Msg: "student_id_column is required"}
	}
	if strings.TrimSpace(m.NameColumn) == "" {
		return &MappingError{Field: "name", Msg: "name_column is required"}
	}
	if len(m.SubjectColumns) == 0 {
		return &MappingError{Field: "subjects", Msg: "at least one subject column is required"}
	}
	return nil
}
