package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/types"
)

// handleAnalyze runs the pipeline for one transcript. Metadata is accepted
// and passed through untouched; it is never interpreted here.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req.Transcript, pipeline.DefaultOptions())
	if err != nil {
		status := HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.WithError(err).Error("analysis failed")
		}
		s.errorResponse(w, status, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleCacheStats returns the result cache statistics.
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.cache.Stats())
}

// handleCacheClear empties the result cache.
func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.cache.Clear()
	s.log.Info("cache cleared")
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}
