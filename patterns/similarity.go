package patterns

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Result limits for similarity searches
const (
	DefaultSimilarLimit = 5
	MaxSimilarLimit     = 10
)

// ErrMissingCurrencyPair is returned when a similarity query has no currency pair.
var ErrMissingCurrencyPair = errors.New("similarity query: currency_pair is required")

// SimilarityWeights controls the linear similarity score.
// With the defaults the weights sum to 1.0.
type SimilarityWeights struct {
	CurrencyPair float64
	Timeframe    float64
	Pattern      float64
	Recency      float64

	// Only scores strictly above Threshold are returned.
	Threshold float64
}

// DefaultSimilarityWeights returns the tuned defaults (0.3/0.2/0.3/0.2, threshold 0.5).
func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{
		CurrencyPair: 0.3,
		Timeframe:    0.2,
		Pattern:      0.3,
		Recency:      0.2,
		Threshold:    0.5,
	}
}

// Matcher scores historical records against current conditions.
type Matcher struct {
	Weights SimilarityWeights
	Now     func() time.Time
}

// NewMatcher returns a Matcher using weights and the wall clock.
func NewMatcher(weights SimilarityWeights) *Matcher {
	return &Matcher{Weights: weights, Now: time.Now}
}

func (m *Matcher) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// NormalizeLimit applies the default and the hard ceiling to a requested limit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSimilarLimit
	}
	if limit > MaxSimilarLimit {
		return MaxSimilarLimit
	}
	return limit
}

// Score computes the weighted similarity of rec to q.
func (m *Matcher) Score(q SimilarityQuery, rec HistoricalRecord) float64 {
	return m.score(q, rec, m.now())
}

func (m *Matcher) score(q SimilarityQuery, rec HistoricalRecord, now time.Time) float64 {
	w := m.Weights
	var score float64

	if samePair(q.CurrencyPair, rec.CurrencyPair) {
		score += w.CurrencyPair
	}
	if q.Timeframe != "" && containsString(rec.Timeframes, q.Timeframe) {
		score += w.Timeframe
	}
	if q.PatternTag != "" {
		if tag, ok := ExtractPattern(rec.AnalysisText); ok && tag == q.PatternTag {
			score += w.Pattern
		}
	}

	daysAgo := int(now.Sub(rec.CreatedAt).Hours() / 24)
	switch {
	case daysAgo < 7:
		score += w.Recency
	case daysAgo < 30:
		score += w.Recency * 0.5
	case daysAgo < 90:
		score += w.Recency * 0.2
	}

	return score
}

// FindSimilar ranks records by similarity to q and returns at most limit
// matches scoring above the threshold, highest first. Equal scores keep
// their input order.
func (m *Matcher) FindSimilar(q SimilarityQuery, records []HistoricalRecord, limit int) ([]SimilarityMatch, error) {
	q.CurrencyPair = strings.ToUpper(strings.TrimSpace(q.CurrencyPair))
	if q.CurrencyPair == "" {
		return nil, ErrMissingCurrencyPair
	}
	limit = NormalizeLimit(limit)
	now := m.now()

	matches := make([]SimilarityMatch, 0, limit)
	for _, rec := range records {
		score := m.score(q, rec, now)
		if score <= m.Weights.Threshold {
			continue
		}
		tag, _ := ExtractPattern(rec.AnalysisText)
		outcome := rec.Outcome
		if outcome == OutcomeNone {
			outcome = OutcomeUnknown
		}
		matches = append(matches, SimilarityMatch{
			RecordID:        rec.ID,
			SimilarityScore: score,
			PatternTag:      tag,
			CurrencyPair:    rec.CurrencyPair,
			Timeframes:      rec.Timeframes,
			Outcome:         outcome,
			KeyDifferences:  keyDifferences(q, rec),
			KeySimilarities: keySimilarities(q, rec),
			AccuracyNotes:   rec.AccuracyNotes,
			OccurredAt:      rec.CreatedAt,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func keyDifferences(q SimilarityQuery, rec HistoricalRecord) []string {
	diffs := []string{}
	if !samePair(q.CurrencyPair, rec.CurrencyPair) {
		diffs = append(diffs, fmt.Sprintf("通貨ペア: %s vs %s", q.CurrencyPair, rec.CurrencyPair))
	}
	if q.Timeframe != "" && !containsString(rec.Timeframes, q.Timeframe) {
		diffs = append(diffs, fmt.Sprintf("時間足: %s vs %s", q.Timeframe, strings.Join(rec.Timeframes, ", ")))
	}
	return diffs
}

func keySimilarities(q SimilarityQuery, rec HistoricalRecord) []string {
	sims := []string{}
	if samePair(q.CurrencyPair, rec.CurrencyPair) {
		sims = append(sims, fmt.Sprintf("同じ通貨ペア: %s", rec.CurrencyPair))
	}
	if q.Timeframe != "" && containsString(rec.Timeframes, q.Timeframe) {
		sims = append(sims, fmt.Sprintf("同じ時間足: %s", q.Timeframe))
	}
	return sims
}

// samePair compares currency pairs ignoring case and surrounding spaces
func samePair(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsString(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
