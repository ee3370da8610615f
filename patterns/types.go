package patterns

import "time"

// HistoricalRecord is one past forecast together with its reviewed outcome.
type HistoricalRecord struct {
	ID            int64     `json:"id"`
	CurrencyPair  string    `json:"currency_pair"`
	Timeframes    []string  `json:"timeframes"`
	AnalysisText  string    `json:"analysis_text"`
	Outcome       Outcome   `json:"outcome,omitempty"`
	AccuracyNotes string    `json:"accuracy_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReviewScore is a scored trade review used for per-pattern average scores.
type ReviewScore struct {
	CurrencyPair  string    `json:"currency_pair"`
	EntryAnalysis string    `json:"entry_analysis"`
	OverallScore  float64   `json:"overall_score"`
	CreatedAt     time.Time `json:"created_at"`
}

// PatternStats aggregates outcomes for one pattern tag.
type PatternStats struct {
	PatternType      PatternTag `json:"pattern_type"`
	TotalOccurrences int        `json:"total_occurrences"`
	SuccessCount     int        `json:"success_count"`
	FailureCount     int        `json:"failure_count"`
	SuccessRate      float64    `json:"success_rate"`
	AverageScore     float64    `json:"average_score"`
	CommonTimeframes []string   `json:"common_timeframes"`
}

// TimeframeStats aggregates outcomes for one chart timeframe.
type TimeframeStats struct {
	Timeframe    string  `json:"timeframe"`
	TotalTrades  int     `json:"total_trades"`
	SuccessCount int     `json:"success_count"`
	FailureCount int     `json:"failure_count"`
	SuccessRate  float64 `json:"success_rate"`
}

// PatternCharacteristics lists the tags that consistently succeed or fail.
// AverageRate is the mean success rate for the success set and the mean
// failure rate (1 - success rate) for the failure set.
type PatternCharacteristics struct {
	Patterns       []PatternTag `json:"patterns"`
	AverageRate    float64      `json:"average_rate"`
	MinOccurrences int          `json:"min_occurrences_for_reliability"`
}

// HistoricalPatternSummary is the aggregator output for one currency pair.
type HistoricalPatternSummary struct {
	CurrencyPair           string                 `json:"currency_pair"`
	AnalysisPeriod         string                 `json:"analysis_period"`
	TotalPatternsAnalyzed  int                    `json:"total_patterns_analyzed"`
	PatternStats           []PatternStats         `json:"pattern_stats"`
	TimeframeStats         []TimeframeStats       `json:"timeframe_stats"`
	SuccessCharacteristics PatternCharacteristics `json:"successful_pattern_characteristics"`
	FailureCharacteristics PatternCharacteristics `json:"failure_pattern_characteristics"`
	Recommendations        []string               `json:"recommendations"`
	ConfidenceScore        float64                `json:"confidence_score"`
	GeneratedAt            time.Time              `json:"generated_at"`
}

// SimilarityQuery describes the current market conditions to match against.
type SimilarityQuery struct {
	CurrencyPair string     `json:"currency_pair"`
	Timeframe    string     `json:"timeframe,omitempty"`
	PatternTag   PatternTag `json:"pattern_type,omitempty"`
}

// SimilarityMatch is one historical record scored against a query.
type SimilarityMatch struct {
	RecordID        int64      `json:"pattern_id"`
	SimilarityScore float64    `json:"similarity_score"`
	PatternTag      PatternTag `json:"pattern_type,omitempty"`
	CurrencyPair    string     `json:"currency_pair"`
	Timeframes      []string   `json:"timeframes"`
	Outcome         Outcome    `json:"outcome"`
	KeyDifferences  []string   `json:"key_differences"`
	KeySimilarities []string   `json:"key_similarities"`
	AccuracyNotes   string     `json:"accuracy_notes,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}
