package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/database/tradereviews"
	"github.com/kazumae/fx-forecast-backend/llm"
	"github.com/kazumae/fx-forecast-backend/logging"
	"github.com/kazumae/fx-forecast-backend/patterns"
)

const maxBodyBytes = 1 << 20

// getIntParam parses an integer query parameter.
// A missing value yields defaultVal; a malformed or out-of-range one is a ValidationError.
func getIntParam(r *http.Request, key string, defaultVal, minVal, maxVal int) (int, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, database.NewValidationErrorWithValue(key, "must be an integer", valStr)
	}
	if val < minVal || val > maxVal {
		return 0, database.NewValidationErrorWithValue(key, "must be between "+strconv.Itoa(minVal)+" and "+strconv.Itoa(maxVal), val)
	}
	return val, nil
}

// getPathID parses a positive int64 path value
func getPathID(r *http.Request, key string) (int64, error) {
	raw := r.PathValue(key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, database.NewValidationErrorWithValue(key, "must be a positive integer", raw)
	}
	return id, nil
}

// pairParam returns the uppercased {pair} path value
func pairParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.PathValue("pair")))
}

// decodeJSON reads a size-limited JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return database.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// respondJSON writes v as a JSON response
func respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// statusFromError maps domain errors onto HTTP status codes
func statusFromError(err error) int {
	switch {
	case database.IsValidation(err), errors.Is(err, patterns.ErrMissingCurrencyPair):
		return http.StatusBadRequest
	case database.IsNotFound(err), errors.Is(err, tradereviews.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrAIResponseImmutable):
		return http.StatusForbidden
	case errors.Is(err, llm.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError logs the error and sends a JSON error response.
// Internal errors are reported with a generic message.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFromError(err)
	log := logging.FromContext(r.Context(), s.Logger)

	message := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("❌ API error", zap.String("path", r.URL.Path), zap.Error(err))
		message = "internal server error"
	} else {
		log.Info("API request rejected", zap.Int("status", code), zap.String("path", r.URL.Path), zap.Error(err))
	}

	respondJSON(w, code, map[string]interface{}{"error": message})
}
