package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/natiga/results/internal/results"
)

// handleSearch finds students by partial name or id match.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query   string `json:"query"`
		StageID string `json:"stage_id"`
	}
	if err := decodeJSON(r, 1<<20, &req); err != nil {
		s.respondError(w, r, &results.ParseError{Msg: "invalid request body: " + err.Error()})
		return
	}

	students, err := s.service.Search(r.Context(), req.Query, req.StageID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := s.service.GetStudent(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// handleListStudents is the paginated admin listing, newest first.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	students, total, err := s.service.ListStudents(r.Context(), filterFromQuery(r), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"students": students,
		"total":    total,
	})
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteStudent(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleDeleteStage clears every student for a stage; with no stage_id
// it clears the whole store.
func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.service.DeleteStudentsByStage(r.Context(), r.URL.Query().Get("stage_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	imports, err := s.service.ListImports(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"imports": imports})
}
