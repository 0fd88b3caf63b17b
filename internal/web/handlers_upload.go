package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/natiga/results/internal/logging"
	"github.com/natiga/results/internal/results"
)

// handleProcessUpload accepts a multipart spreadsheet upload together
// with a column mapping and commits the batch. Fields:
//
//	file        the csv or xlsx file (required)
//	mapping     ColumnMapping as JSON (required unless template_id)
//	template_id saved template to use instead of an inline mapping
//	stage_id    educational stage the batch belongs to
//	region      default region stamped on rows without one
func (s *Server) handleProcessUpload(w http.ResponseWriter, r *http.Request) {
	table, fileName, err := s.parseUploadFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	mapping, err := s.uploadMapping(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := s.importContext(r)
	defer cancel()

	res, err := s.service.ProcessUpload(ctx, results.UploadRequest{
		Table:    table,
		Mapping:  *mapping,
		StageID:  r.FormValue("stage_id"),
		Region:   r.FormValue("region"),
		FileName: fileName,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(),
		"file", fileName,
		"stage_id", r.FormValue("stage_id"),
		"processed", res.TotalProcessed,
	).Info("import committed")

	writeJSON(w, http.StatusOK, res)
}

// handleValidate runs the validation engine without writing anything.
// Accepts the same multipart shape as process-excel, or a JSON body
// with pre-parsed rows:
//
//	{"rows": [...], "mapping": {...}} or {"rows": [...], "template_id": "..."}
//
// Always responds 200 when validation ran; is_valid carries the verdict.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var (
		table      *results.SourceTable
		mapping    results.ColumnMapping
		templateID string
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		t, _, err := s.parseUploadFile(w, r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		table = t
		templateID = r.FormValue("template_id")
		if templateID == "" {
			m, err := decodeMapping(r.FormValue("mapping"))
			if err != nil {
				s.respondError(w, r, err)
				return
			}
			mapping = *m
		}
	} else {
		var req struct {
			Rows       json.RawMessage       `json:"rows"`
			Mapping    results.ColumnMapping `json:"mapping"`
			TemplateID string                `json:"template_id"`
		}
		if err := decodeJSON(r, s.cfg.Import.MaxFileSize, &req); err != nil {
			s.respondError(w, r, &results.ParseError{Msg: "invalid request body: " + err.Error()})
			return
		}
		t, err := results.ParseJSONRows(req.Rows)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		table = t
		mapping = req.Mapping
		templateID = req.TemplateID
	}

	if err := s.checkRowLimit(table); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ValidateUpload(r.Context(), table, mapping, templateID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUploadStudents commits a batch sent as JSON. Two shapes are
// accepted: canonical records under "students", or raw "rows" plus a
// "mapping" that goes through the full resolve and validate pipeline.
func (s *Server) handleUploadStudents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Students []results.StudentRecord `json:"students"`
		Rows     json.RawMessage         `json:"rows"`
		Mapping  *results.ColumnMapping  `json:"mapping"`
		StageID  string                  `json:"stage_id"`
		Region   string                  `json:"region"`
	}
	if err := decodeJSON(r, s.cfg.Import.MaxFileSize, &req); err != nil {
		s.respondError(w, r, &results.ParseError{Msg: "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := s.importContext(r)
	defer cancel()

	var (
		res *results.ImportResult
		err error
	)
	switch {
	case len(req.Students) > 0:
		if len(req.Students) > s.cfg.Import.MaxRows {
			s.respondError(w, r, &results.ParseError{
				Msg: fmt.Sprintf("too many records: %d exceeds the limit of %d", len(req.Students), s.cfg.Import.MaxRows),
			})
			return
		}
		res, err = s.service.UploadRecords(ctx, req.Students, req.StageID)
	case len(req.Rows) > 0 && req.Mapping != nil:
		var table *results.SourceTable
		table, err = results.ParseJSONRows(req.Rows)
		if err == nil {
			err = s.checkRowLimit(table)
		}
		if err == nil {
			res, err = s.service.ProcessUpload(ctx, results.UploadRequest{
				Table:    table,
				Mapping:  *req.Mapping,
				StageID:  req.StageID,
				Region:   req.Region,
				FileName: "json-rows",
			})
		}
	default:
		err = &results.ParseError{Msg: "request must carry either students or rows with a mapping"}
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// importContext caps a committing upload at the configured import
// timeout. Reads and validation keep the plain request context.
func (s *Server) importContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.cfg.Import.Timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
}

// parseUploadFile reads the multipart "file" field and parses it by
// extension. The body is capped at the configured max upload size.
func (s *Server) parseUploadFile(w http.ResponseWriter, r *http.Request) (*results.SourceTable, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		return nil, "", &results.ParseError{Msg: "could not read upload: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &results.ParseError{Msg: "no file provided"}
	}
	defer file.Close()

	table, err := parseByExtension(file, header.Filename)
	if err != nil {
		return nil, "", err
	}
	if err := s.checkRowLimit(table); err != nil {
		return nil, "", err
	}
	return table, header.Filename, nil
}

func parseByExtension(file multipart.File, name string) (*results.SourceTable, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &results.ParseError{Msg: "could not read file: " + err.Error()}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return results.ParseWorkbook(data)
	default:
		return results.ParseCSV(data)
	}
}

func (s *Server) uploadMapping(r *http.Request) (*results.ColumnMapping, error) {
	if id := r.FormValue("template_id"); id != "" {
		return s.service.UseTemplate(r.Context(), id)
	}
	return decodeMapping(r.FormValue("mapping"))
}

func decodeMapping(raw string) (*results.ColumnMapping, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &results.MappingError{Field: "mapping", Msg: "mapping is required"}
	}
	var m results.ColumnMapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &results.MappingError{Field: "mapping", Msg: "mapping is not valid JSON: " + err.Error()}
	}
	return &m, nil
}

func (s *Server) checkRowLimit(table *results.SourceTable) error {
	if table != nil && len(table.Rows) > s.cfg.Import.MaxRows {
		return &results.ParseError{
			Msg: fmt.Sprintf("too many rows: %d exceeds the limit of %d", len(table.Rows), s.cfg.Import.MaxRows),
		}
	}
	return nil
}
