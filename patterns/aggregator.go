package patterns

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Aggregation thresholds
const (
	DefaultWindowDays = 30

	// A pattern needs more than this many occurrences before it is
	// classified as a success or failure characteristic.
	MinReliableOccurrences = 3

	HighSuccessRate = 0.6
	LowSuccessRate  = 0.4
)

// Confidence steps keyed by sample size
const (
	confidenceVeryHigh = 0.95 // >= 100 samples
	confidenceHigh     = 0.85 // >= 50
	confidenceMedium   = 0.70 // >= 20
	confidenceLow      = 0.50 // >= 10
	confidenceMinimal  = 0.30
)

// Aggregator builds HistoricalPatternSummary values from record snapshots.
// It holds no state besides the clock and is safe for concurrent use.
type Aggregator struct {
	Now func() time.Time
}

// NewAggregator returns an Aggregator on the wall clock.
func NewAggregator() *Aggregator {
	return &Aggregator{Now: time.Now}
}

func (a *Aggregator) now() time.Time {
	if a == nil || a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Aggregate summarizes records for currencyPair over the last windowDays.
func (a *Aggregator) Aggregate(records []HistoricalRecord, currencyPair string, windowDays int) HistoricalPatternSummary {
	return a.AggregateWithReviews(records, nil, currencyPair, windowDays)
}

// AggregateWithReviews is Aggregate plus per-pattern average scores taken
// from trade reviews whose entry analysis mentions the pattern.
func (a *Aggregator) AggregateWithReviews(records []HistoricalRecord, reviews []ReviewScore, currencyPair string, windowDays int) HistoricalPatternSummary {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	now := a.now()
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	summary := HistoricalPatternSummary{
		CurrencyPair:    currencyPair,
		AnalysisPeriod:  fmt.Sprintf("last_%d_days", windowDays),
		PatternStats:    []PatternStats{},
		TimeframeStats:  []TimeframeStats{},
		Recommendations: []string{},
		GeneratedAt:     now,
	}

	byTag := make(map[PatternTag]*PatternStats)
	tagTimeframes := make(map[PatternTag]map[string]struct{})
	byTimeframe := make(map[string]*TimeframeStats)

	for _, rec := range records {
		if !strings.EqualFold(rec.CurrencyPair, currencyPair) || rec.CreatedAt.Before(cutoff) {
			continue
		}
		summary.TotalPatternsAnalyzed++

		for _, tf := range uniqueTimeframes(rec.Timeframes) {
			ts, ok := byTimeframe[tf]
			if !ok {
				ts = &TimeframeStats{Timeframe: tf}
				byTimeframe[tf] = ts
			}
			ts.TotalTrades++
			switch {
			case rec.Outcome.IsSuccess():
				ts.SuccessCount++
			case rec.Outcome.IsFailure():
				ts.FailureCount++
			}
		}

		tag, ok := ExtractPattern(rec.AnalysisText)
		if !ok {
			continue
		}
		ps, ok := byTag[tag]
		if !ok {
			ps = &PatternStats{PatternType: tag}
			byTag[tag] = ps
			tagTimeframes[tag] = make(map[string]struct{})
		}
		ps.TotalOccurrences++
		switch {
		case rec.Outcome.IsSuccess():
			ps.SuccessCount++
		case rec.Outcome.IsFailure():
			ps.FailureCount++
		}
		for _, tf := range rec.Timeframes {
			if tf != "" {
				tagTimeframes[tag][tf] = struct{}{}
			}
		}
	}

	applyReviewScores(byTag, reviews, currencyPair, cutoff)

	for _, tag := range AllTags() {
		ps, ok := byTag[tag]
		if !ok {
			continue
		}
		ps.SuccessRate = successRate(ps.SuccessCount, ps.FailureCount)
		ps.CommonTimeframes = sortedKeys(tagTimeframes[tag])
		summary.PatternStats = append(summary.PatternStats, *ps)
	}

	for _, tf := range sortedKeys(byTimeframe) {
		ts := byTimeframe[tf]
		ts.SuccessRate = successRate(ts.SuccessCount, ts.FailureCount)
		summary.TimeframeStats = append(summary.TimeframeStats, *ts)
	}

	summary.SuccessCharacteristics = successCharacteristics(summary.PatternStats)
	summary.FailureCharacteristics = failureCharacteristics(summary.PatternStats)
	summary.Recommendations = recommendations(summary.PatternStats, summary.TimeframeStats)
	summary.ConfidenceScore = ConfidenceForSampleSize(summary.TotalPatternsAnalyzed)

	return summary
}

// ConfidenceForSampleSize maps a sample size to a coarse trust level.
// It is a step function, not a statistical confidence interval.
func ConfidenceForSampleSize(n int) float64 {
	switch {
	case n >= 100:
		return confidenceVeryHigh
	case n >= 50:
		return confidenceHigh
	case n >= 20:
		return confidenceMedium
	case n >= 10:
		return confidenceLow
	default:
		return confidenceMinimal
	}
}

// TopPatterns returns up to n observed patterns ranked by success rate
// weighted by occurrences. Ties go to the lexicographically smaller tag.
func TopPatterns(stats []PatternStats, n int) []PatternStats {
	ranked := make([]PatternStats, 0, len(stats))
	for _, ps := range stats {
		if ps.TotalOccurrences > 0 {
			ranked = append(ranked, ps)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		wi, wj := weightedScore(ranked[i]), weightedScore(ranked[j])
		if wi != wj {
			return wi > wj
		}
		return ranked[i].PatternType < ranked[j].PatternType
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func applyReviewScores(byTag map[PatternTag]*PatternStats, reviews []ReviewScore, currencyPair string, cutoff time.Time) {
	sums := make(map[PatternTag]float64)
	counts := make(map[PatternTag]int)
	for _, rv := range reviews {
		if !strings.EqualFold(rv.CurrencyPair, currencyPair) || rv.CreatedAt.Before(cutoff) {
			continue
		}
		tag, ok := ExtractPattern(rv.EntryAnalysis)
		if !ok {
			continue
		}
		if _, seen := byTag[tag]; !seen {
			continue
		}
		sums[tag] += rv.OverallScore
		counts[tag]++
	}
	for tag, c := range counts {
		byTag[tag].AverageScore = sums[tag] / float64(c)
	}
}

func successCharacteristics(stats []PatternStats) PatternCharacteristics {
	out := PatternCharacteristics{Patterns: []PatternTag{}, MinOccurrences: MinReliableOccurrences}
	var total float64
	for _, ps := range stats {
		if ps.SuccessRate > HighSuccessRate && ps.TotalOccurrences > MinReliableOccurrences {
			out.Patterns = append(out.Patterns, ps.PatternType)
			total += ps.SuccessRate
		}
	}
	if len(out.Patterns) > 0 {
		out.AverageRate = total / float64(len(out.Patterns))
	}
	return out
}

func failureCharacteristics(stats []PatternStats) PatternCharacteristics {
	out := PatternCharacteristics{Patterns: []PatternTag{}, MinOccurrences: MinReliableOccurrences}
	var total float64
	for _, ps := range stats {
		if ps.SuccessRate < LowSuccessRate && ps.TotalOccurrences > MinReliableOccurrences {
			out.Patterns = append(out.Patterns, ps.PatternType)
			total += ps.SuccessRate
		}
	}
	if len(out.Patterns) > 0 {
		out.AverageRate = 1 - total/float64(len(out.Patterns))
	}
	return out
}

func recommendations(patternStats []PatternStats, timeframeStats []TimeframeStats) []string {
	recs := []string{}

	var best *PatternStats
	for i := range patternStats {
		ps := &patternStats[i]
		if best == nil || weightedScore(*ps) > weightedScore(*best) ||
			(weightedScore(*ps) == weightedScore(*best) && ps.PatternType < best.PatternType) {
			best = ps
		}
	}
	if best != nil && best.SuccessRate > HighSuccessRate {
		recs = append(recs, fmt.Sprintf("%sパターンの成功率が%.1f%%と高い", best.PatternType, best.SuccessRate*100))
	}

	var bestTF *TimeframeStats
	for i := range timeframeStats {
		ts := &timeframeStats[i]
		w := ts.SuccessRate * float64(ts.TotalTrades)
		if bestTF == nil {
			bestTF = ts
			continue
		}
		bw := bestTF.SuccessRate * float64(bestTF.TotalTrades)
		if w > bw || (w == bw && ts.Timeframe < bestTF.Timeframe) {
			bestTF = ts
		}
	}
	if bestTF != nil && bestTF.SuccessRate > HighSuccessRate {
		recs = append(recs, fmt.Sprintf("%sでの取引成功率が高い", bestTF.Timeframe))
	}

	return recs
}

func weightedScore(ps PatternStats) float64 {
	return ps.SuccessRate * float64(ps.TotalOccurrences)
}

func successRate(success, failure int) float64 {
	if success+failure == 0 {
		return 0.0
	}
	return float64(success) / float64(success+failure)
}

func uniqueTimeframes(tfs []string) []string {
	if len(tfs) < 2 {
		if len(tfs) == 1 && tfs[0] == "" {
			return nil
		}
		return tfs
	}
	seen := make(map[string]struct{}, len(tfs))
	out := make([]string, 0, len(tfs))
	for _, tf := range tfs {
		if tf == "" {
			continue
		}
		if _, ok := seen[tf]; ok {
			continue
		}
		seen[tf] = struct{}{}
		out = append(out, tf)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
