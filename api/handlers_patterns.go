package api

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/logging"
	"github.com/kazumae/fx-forecast-backend/patterns"
)

const statisticsTopN = 3

// observe records duration and input size of one analysis operation
func (s *Server) observe(operation string, start time.Time, records int) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	s.Metrics.RecordsAnalyzed.WithLabelValues(operation).Observe(float64(records))
}

// summarize fetches records and review scores for pair and aggregates them
func (s *Server) summarize(r *http.Request, pair string, days int) (patterns.HistoricalPatternSummary, int, error) {
	since := time.Now().AddDate(0, 0, -days)

	records, err := s.Records.GetHistoricalRecords(r.Context(), pair, since)
	if err != nil {
		return patterns.HistoricalPatternSummary{}, 0, err
	}

	var scores []patterns.ReviewScore
	if s.Scores != nil {
		scores, err = s.Scores.GetScores(r.Context(), pair, since)
		if err != nil {
			// Scores only enrich the summary
			logging.FromContext(r.Context(), s.Logger).Warn("⚠️ Failed to load trade review scores",
				zap.String("currency_pair", pair), zap.Error(err))
			scores = nil
		}
	}

	return s.Aggregator.AggregateWithReviews(records, scores, pair, days), len(records), nil
}

// handlePatternAnalysis returns the historical pattern summary for one pair
func (s *Server) handlePatternAnalysis(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pair := pairParam(r)

	days, err := getIntParam(r, "days_back", s.WindowDays, database.MinLookbackDays, database.MaxLookbackDays)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	summary, n, err := s.summarize(r, pair, days)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	s.observe("analysis", start, n)

	respondJSON(w, http.StatusOK, summary)
}

type similarRequest struct {
	CurrencyPair string `json:"currency_pair"`
	Timeframe    string `json:"timeframe"`
	PatternType  string `json:"pattern_type"`
}

// handleSimilarPatterns scores the full history of every pair against the given conditions
func (s *Server) handleSimilarPatterns(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", 5, 1, 10)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	var req similarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	q := patterns.SimilarityQuery{
		CurrencyPair: strings.ToUpper(strings.TrimSpace(req.CurrencyPair)),
		Timeframe:    strings.TrimSpace(req.Timeframe),
	}
	if q.CurrencyPair == "" {
		s.respondWithError(w, r, patterns.ErrMissingCurrencyPair)
		return
	}
	if tag, ok := patterns.ParsePatternTag(req.PatternType); ok {
		q.PatternTag = tag
	}

	records, err := s.Records.GetAllHistoricalRecords(r.Context(), time.Time{})
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	matches, err := s.Matcher.FindSimilar(q, records, limit)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	s.observe("similarity", start, len(records))
	if s.Metrics != nil {
		s.Metrics.SimilarMatchesFound.Observe(float64(len(matches)))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches":     matches,
		"total_found": len(matches),
	})
}

// handlePatternContext renders the prompt context for a pair and its timeframes
func (s *Server) handlePatternContext(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pair := pairParam(r)

	var timeframes []string
	for _, tf := range strings.Split(r.URL.Query().Get("timeframes"), ",") {
		if tf = strings.TrimSpace(tf); tf != "" {
			timeframes = append(timeframes, tf)
		}
	}
	if len(timeframes) == 0 {
		s.respondWithError(w, r, database.NewValidationError("timeframes", "at least one timeframe is required"))
		return
	}

	summary, n, err := s.summarize(r, pair, s.WindowDays)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	metadata, err := s.Records.GetRecentReviewMetadata(r.Context(), database.DefaultMetadataLimit)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	candidates, err := s.Records.GetAllHistoricalRecords(r.Context(), time.Time{})
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	query := patterns.ConditionsFromRequest(pair, timeframes, r.URL.Query().Get("analysis"))
	similar, err := s.Matcher.FindSimilar(query, candidates, 0)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	text := patterns.FormatContext(patterns.ContextInput{
		Summary:    summary,
		Metadata:   patterns.SummarizeMetadata(metadata),
		Similar:    similar,
		Timeframes: timeframes,
	})
	s.observe("context", start, n+len(candidates))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"currency_pair":  pair,
		"timeframes":     timeframes,
		"context":        text,
		"context_length": len([]rune(text)),
	})
}

type patternHighlight struct {
	Type        patterns.PatternTag `json:"type"`
	SuccessRate float64             `json:"success_rate"`
	Occurrences int                 `json:"occurrences"`
}

type pairStatistics struct {
	TotalPatterns   int                `json:"total_patterns"`
	ConfidenceScore float64            `json:"confidence_score"`
	TopPatterns     []patternHighlight `json:"top_patterns"`
}

// handlePatternStatistics summarises every configured pair from one shared snapshot
func (s *Server) handlePatternStatistics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	since := time.Now().AddDate(0, 0, -s.WindowDays)

	records, err := s.Records.GetAllHistoricalRecords(r.Context(), since)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	var scores []patterns.ReviewScore
	if s.Scores != nil {
		if scores, err = s.Scores.GetScores(r.Context(), "", since); err != nil {
			logging.FromContext(r.Context(), s.Logger).Warn("⚠️ Failed to load trade review scores", zap.Error(err))
			scores = nil
		}
	}

	stats := make(map[string]pairStatistics, len(s.StatisticsPairs))
	for _, pair := range s.StatisticsPairs {
		summary := s.Aggregator.AggregateWithReviews(records, scores, pair, s.WindowDays)

		top := patterns.TopPatterns(summary.PatternStats, statisticsTopN)
		highlights := make([]patternHighlight, 0, len(top))
		for _, ps := range top {
			highlights = append(highlights, patternHighlight{
				Type:        ps.PatternType,
				SuccessRate: ps.SuccessRate,
				Occurrences: ps.TotalOccurrences,
			})
		}

		stats[pair] = pairStatistics{
			TotalPatterns:   summary.TotalPatternsAnalyzed,
			ConfidenceScore: summary.ConfidenceScore,
			TopPatterns:     highlights,
		}
	}
	s.observe("statistics", start, len(records))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"statistics":   stats,
		"window_days":  s.WindowDays,
		"generated_at": time.Now().UTC(),
	})
}

// handleExtractPattern returns the first pattern tag found in the text
func (s *Server) handleExtractPattern(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondWithError(w, r, err)
		return
	}

	var tag *patterns.PatternTag
	if t, ok := patterns.ExtractPattern(req.Text); ok {
		tag = &t
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"pattern_type": tag})
}
