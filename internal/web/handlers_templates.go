package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/natiga/results/internal/results"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.service.ListTemplates(r.Context(), r.URL.Query().Get("stage_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t results.MappingTemplate
	if err := decodeJSON(r, 1<<20, &t); err != nil {
		s.respondError(w, r, &results.ParseError{Msg: "invalid request body: " + err.Error()})
		return
	}

	created, err := s.service.CreateTemplate(r.Context(), t)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUseTemplate records one application of a template and returns
// its mapping.
func (s *Server) handleUseTemplate(w http.ResponseWriter, r *http.Request) {
	mapping, err := s.service.UseTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mapping": mapping})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
