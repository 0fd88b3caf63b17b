package web

import (
	"errors"
	"net/http"
	"testing"

	"github.com/natiga/results/internal/results"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "parse error",
			err:        &results.ParseError{Msg: "empty source"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "PARSE_FAILED",
		},
		{
			name:       "mapping error",
			err:        &results.MappingError{Field: "name_column", Msg: "missing"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MAPPING_INVALID",
		},
		{
			name: "validation failure",
			err: &results.BatchInvalidError{Result: &results.ValidationResult{
				Errors: []results.ValidationIssue{{Message: "duplicate ids"}},
			}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "not found",
			err:        &results.NotFoundError{Kind: "student", ID: "42"},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "import busy",
			err:        results.ErrImportBusy,
			wantStatus: http.StatusConflict,
			wantCode:   "IMPORT_BUSY",
		},
		{
			name:       "storage error",
			err:        &results.StorageError{Op: "upsert batch", Err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "STORAGE_FAILED",
		},
		{
			name:       "unknown error",
			err:        errors.New("surprise"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
		{
			name:       "wrapped not found",
			err:        &results.StorageError{Op: "get", Err: &results.NotFoundError{Kind: "student", ID: "42"}},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := classifyError(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestClassifyError_ValidationEmbedsResult(t *testing.T) {
	res := &results.ValidationResult{
		Errors: []results.ValidationIssue{{Message: "bad"}},
	}
	_, resp := classifyError(&results.BatchInvalidError{Result: res})

	if resp.Validation != res {
		t.Error("422 response should embed the full validation result")
	}
}

func TestClassifyError_StorageHidesDetail(t *testing.T) {
	_, resp := classifyError(&results.StorageError{Op: "upsert", Err: errors.New("pq: secret dsn")})
	if resp.Error != "storage operation failed" {
		t.Errorf("error = %q, internals must not leak", resp.Error)
	}
}
