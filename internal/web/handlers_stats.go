package web

import (
	"net/http"
	"strconv"

	"github.com/natiga/results/internal/results"
)

func filterFromQuery(r *http.Request) results.StudentFilter {
	q := r.URL.Query()
	return results.StudentFilter{
		StageID:        q.Get("stage_id"),
		Region:         q.Get("region"),
		Administration: q.Get("administration"),
	}
}

// handleStats returns the full dashboard aggregate, computed fresh on
// every request.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), filterFromQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSchoolsSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), filterFromQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schools": stats.Schools})
}

func (s *Server) handleSubjectsSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), filterFromQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subjects": stats.Subjects})
}

// handleTopStudents returns the n highest averages, ties broken by
// insertion order.
func (s *Server) handleTopStudents(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			s.respondError(w, r, &results.ParseError{Msg: "n must be an integer between 1 and 100"})
			return
		}
		n = v
	}

	top, err := s.service.Top(r.Context(), filterFromQuery(r), n)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"top_students": top})
}
