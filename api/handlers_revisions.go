package api

import (
	"net/http"

	"github.com/kazumae/fx-forecast-backend/database/revisions"
)

// handleReviseAnalysis rewrites a forecast analysis from the insight in one of its comments
func (s *Server) handleReviseAnalysis(w http.ResponseWriter, r *http.Request) {
	var req revisions.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	result, err := s.Revisions.Revise(r.Context(), req)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleSuggestRevision asks whether a forecast comment calls for a revision
func (s *Server) handleSuggestRevision(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	suggestion, err := s.Revisions.Suggest(r.Context(), id)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, suggestion)
}

func (s *Server) handleRevisionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	history, err := s.Revisions.History(r.Context(), id)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"forecast_id": id,
		"revisions":   history,
		"total":       len(history),
	})
}
