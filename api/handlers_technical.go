package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/technical"
)

// technicalError turns indicator input errors into validation errors
func technicalError(field string, err error) error {
	if errors.Is(err, technical.ErrInsufficientData) {
		return database.NewValidationError(field, err.Error())
	}
	return err
}

// handleVolatility analyses candle ranges in pips
func (s *Server) handleVolatility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ranges    []float64 `json:"ranges"`
		Timeframe string    `json:"timeframe"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	start := time.Now()
	result, err := technical.AnalyzeVolatility(req.Ranges, req.Timeframe)
	if err != nil {
		s.respondWithError(w, r, technicalError("ranges", err))
		return
	}
	s.observe("volatility", start, len(req.Ranges))

	respondJSON(w, http.StatusOK, result)
}

// handleTrend computes the EMA trend of a close series
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Closes    []float64 `json:"closes"`
		Timeframe string    `json:"timeframe"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	start := time.Now()
	result, err := technical.AnalyzeTrend(req.Closes, req.Timeframe)
	if err != nil {
		s.respondWithError(w, r, technicalError("closes", err))
		return
	}
	s.observe("trend", start, len(req.Closes))

	respondJSON(w, http.StatusOK, result)
}

// handleMultiTimeframe computes confluence across close series keyed by timeframe
func (s *Server) handleMultiTimeframe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Series map[string][]float64 `json:"series"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	if len(req.Series) == 0 {
		s.respondWithError(w, r, database.NewValidationError("series", "at least one timeframe is required"))
		return
	}

	start := time.Now()
	result := technical.MultiTimeframe(req.Series, time.Now())
	total := 0
	for _, closes := range req.Series {
		total += len(closes)
	}
	s.observe("multi_timeframe", start, total)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result":            result,
		"bullish":           result.IsBullishConfluence(),
		"bearish":           result.IsBearishConfluence(),
		"strong_confluence": result.HasStrongConfluence(),
	})
}
