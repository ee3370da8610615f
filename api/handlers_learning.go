package api

import (
	"net/http"

	"github.com/kazumae/fx-forecast-backend/database"
)

// handleCompileLearning compiles learning data for the window and writes the export files
func (s *Server) handleCompileLearning(w http.ResponseWriter, r *http.Request) {
	days, err := getIntParam(r, "days_back", database.DefaultLookbackDays, 1, 365)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	data, files, err := s.Learning.Compile(r.Context(), days)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"files": files,
	})
}

// handleLearningSummary summarises the exported snapshots of the last days
func (s *Server) handleLearningSummary(w http.ResponseWriter, r *http.Request) {
	days, err := getIntParam(r, "days", 7, 1, 365)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	summary, snapshots, err := s.Learning.Summary(days)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary":   summary,
		"snapshots": snapshots,
		"days":      days,
	})
}

// handleDailyReport writes today's report from the snapshots of the last days
func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	days, err := getIntParam(r, "days", database.DefaultLookbackDays, 1, 365)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	path, err := s.Learning.DailyReport(days)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Daily report generated successfully",
		"file":    path,
		"days":    days,
	})
}
