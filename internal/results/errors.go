package results

// errors.go defines the pipeline error taxonomy.
//
//	ParseError      - the uploaded source could not be read or is empty
//	MappingError    - a required mapping field does not resolve against
//	                  the source columns, or a template id is malformed
//	BatchInvalidError - blocking validation rule violated; carries the
//	                  full ValidationResult for the caller to act on
//	StorageError    - the batch write failed; the whole batch was rolled
//	                  back and zero records were applied
//	NotFoundError   - unknown template, student, or stage id
//
// The web layer maps each kind to an HTTP status and a machine-readable
// error code. Nothing here is retried automatically: re-submitting an
// upload is safe because the upsert is idempotent by student_id.

import (
	"errors"
	"fmt"
)

// ParseError reports an unreadable or empty source table.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse: " + e.Msg
}

// MappingError reports a mapping that cannot be applied to the source.
type MappingError struct {
	Field  string // mapping field, e.g. "student_id_column"
	Column string // the column the mapping referenced, if any
	Msg    string
}

func (e *MappingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("mapping: %s (%s=%q)", e.Msg, e.Field, e.Column)
	}
	if e.Field != "" {
		return fmt.Sprintf("mapping: %s (%s)", e.Msg, e.Field)
	}
	return "mapping: " + e.Msg
}

// BatchInvalidError reports a batch rejected by the validation engine.
// Result always carries at least one blocking error.
type BatchInvalidError struct {
	Result *ValidationResult
}

func (e *BatchInvalidError) Error() string {
	n := len(e.Result.Errors)
	if n == 1 {
		return "validation: " + e.Result.Errors[0].Message
	}
	return fmt.Sprintf("validation: %d blocking errors", n)
}

// StorageError reports a failed batch write. TotalProcessed is always
// zero for the failed batch.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing entity on read or delete.
type NotFoundError struct {
	Kind string // "template", "student", "stage"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrImportBusy is returned when another import holds the stage lock
// past the configured wait. Clients should retry after a short delay.
var ErrImportBusy = errors.New("another import for this stage is in progress, please try again later")

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
