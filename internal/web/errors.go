package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/natiga/results/internal/results"
)

// ErrorResponse is the JSON body for every non-2xx API response.
// Code is a stable machine-readable identifier clients can branch on.
type ErrorResponse struct {
	Error      string                    `json:"error"`
	Message    string                    `json:"message"`
	Code       string                    `json:"code"`
	Validation *results.ValidationResult `json:"validation,omitempty"`
}

// respondError maps a service error onto an HTTP status and a client
// payload, and logs the technical detail with the request id.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classifyError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", resp.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, status, resp)
}

// classifyError translates the typed errors the results package
// produces. Unknown errors never leak internals to the client.
func classifyError(err error) (int, ErrorResponse) {
	var (
		parseErr   *results.ParseError
		mappingErr *results.MappingError
		batchErr   *results.BatchInvalidError
		storageErr *results.StorageError
		notFound   *results.NotFoundError
	)

	switch {
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:   parseErr.Error(),
			Message: "The uploaded file could not be read. Check the format and try again.",
			Code:    "PARSE_FAILED",
		}
	case errors.As(err, &mappingErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:   mappingErr.Error(),
			Message: "The column mapping does not fit this file.",
			Code:    "MAPPING_INVALID",
		}
	case errors.As(err, &batchErr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:      batchErr.Error(),
			Message:    "The batch failed validation. Nothing was imported.",
			Code:       "VALIDATION_FAILED",
			Validation: batchErr.Result,
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{
			Error:   notFound.Error(),
			Message: "The requested record does not exist.",
			Code:    "NOT_FOUND",
		}
	case errors.Is(err, results.ErrImportBusy):
		return http.StatusConflict, ErrorResponse{
			Error:   err.Error(),
			Message: "Another import for this stage is in progress. Try again shortly.",
			Code:    "IMPORT_BUSY",
		}
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "storage operation failed",
			Message: "Saving the data failed and the batch was rolled back. Please try again.",
			Code:    "STORAGE_FAILED",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "internal error",
			Message: "Something went wrong. Please try again.",
			Code:    "INTERNAL",
		}
	}
}
