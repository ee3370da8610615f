package technical

import (
	"sort"
	"time"
)

// MTF trend labels
const (
	MTFTrendBullish = "BULLISH"
	MTFTrendBearish = "BEARISH"
	MTFTrendNeutral = "NEUTRAL"

	// Price change (percent) needed to call a short series directional
	shortSeriesThreshold = 0.3
	minSeriesLength      = 3
)

// Weight by timeframe importance (higher TF = more weight)
var timeframeWeights = map[string]float64{
	"1m":  1.0,
	"5m":  1.5,
	"15m": 2.0,
	"30m": 2.25,
	"1h":  2.5,
	"4h":  3.0,
	"1d":  3.5,
}

// TimeframeAnalysis represents analysis for a single timeframe
type TimeframeAnalysis struct {
	Timeframe   string         `json:"timeframe"`
	Trend       string         `json:"trend"`
	PriceChange float64        `json:"price_change_pct"`
	Weight      float64        `json:"weight"`
	EMA         *TrendAnalysis `json:"ema,omitempty"`
}

// MTFResult contains the aggregated multi-timeframe analysis
type MTFResult struct {
	Analyses        []TimeframeAnalysis `json:"analyses"`
	ConfluenceScore float64             `json:"confluence_score"` // 0.0 - 1.0
	DominantTrend   string              `json:"dominant_trend"`
	AgreementCount  int                 `json:"agreement_count"`
	CalculatedAt    time.Time           `json:"calculated_at"`
}

// MultiTimeframe analyzes close series keyed by timeframe.
// Series shorter than three closes are skipped.
func MultiTimeframe(series map[string][]float64, now time.Time) *MTFResult {
	result := &MTFResult{
		Analyses:     make([]TimeframeAnalysis, 0, len(series)),
		CalculatedAt: now,
	}

	for tf, closes := range series {
		if analysis := analyzeTimeframe(tf, closes); analysis != nil {
			result.Analyses = append(result.Analyses, *analysis)
		}
	}
	sort.Slice(result.Analyses, func(i, j int) bool {
		a, b := result.Analyses[i], result.Analyses[j]
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.Timeframe < b.Timeframe
	})

	result.ConfluenceScore, result.DominantTrend, result.AgreementCount = calculateConfluence(result.Analyses)
	return result
}

// TimeframeWeight returns the confluence weight of a timeframe; unknown ones weigh 1.0
func TimeframeWeight(timeframe string) float64 {
	if w, ok := timeframeWeights[timeframe]; ok {
		return w
	}
	return 1.0
}

// analyzeTimeframe uses the EMA trend when enough closes exist, else first-to-last change
func analyzeTimeframe(timeframe string, closes []float64) *TimeframeAnalysis {
	if len(closes) < minSeriesLength {
		return nil
	}

	analysis := &TimeframeAnalysis{
		Timeframe: timeframe,
		Weight:    TimeframeWeight(timeframe),
		Trend:     MTFTrendNeutral,
	}

	first, last := closes[0], closes[len(closes)-1]
	if first > 0 {
		analysis.PriceChange = round1((last - first) / first * 100)
	}

	if ta, err := AnalyzeTrend(closes, timeframe); err == nil {
		analysis.EMA = &ta
		switch ta.Direction {
		case DirectionStrongUp, DirectionUp:
			analysis.Trend = MTFTrendBullish
		case DirectionStrongDown, DirectionDown:
			analysis.Trend = MTFTrendBearish
		}
		return analysis
	}

	if first > 0 {
		change := (last - first) / first * 100
		if change > shortSeriesThreshold {
			analysis.Trend = MTFTrendBullish
		} else if change < -shortSeriesThreshold {
			analysis.Trend = MTFTrendBearish
		}
	}
	return analysis
}

// calculateConfluence determines how many timeframes agree on trend
func calculateConfluence(analyses []TimeframeAnalysis) (float64, string, int) {
	if len(analyses) == 0 {
		return 0.5, MTFTrendNeutral, 0 // Neutral if no data
	}

	trendCount := map[string]int{}
	for _, a := range analyses {
		trendCount[a.Trend]++
	}

	dominantTrend := MTFTrendNeutral
	maxCount := trendCount[MTFTrendNeutral]
	switch {
	case trendCount[MTFTrendBullish] > trendCount[MTFTrendBearish]:
		dominantTrend, maxCount = MTFTrendBullish, trendCount[MTFTrendBullish]
	case trendCount[MTFTrendBearish] > trendCount[MTFTrendBullish]:
		dominantTrend, maxCount = MTFTrendBearish, trendCount[MTFTrendBearish]
	}

	totalWeight := 0.0
	agreeWeight := 0.0
	for _, a := range analyses {
		totalWeight += a.Weight
		switch a.Trend {
		case dominantTrend:
			agreeWeight += a.Weight
		case MTFTrendNeutral:
			agreeWeight += a.Weight * 0.5 // Neutral counts as half
		}
	}

	confluence := 0.5
	if totalWeight > 0 {
		confluence = agreeWeight / totalWeight
	}
	return confluence, dominantTrend, maxCount
}

// IsBullishConfluence returns true if majority of timeframes are bullish
func (mr *MTFResult) IsBullishConfluence() bool {
	return mr.DominantTrend == MTFTrendBullish && mr.ConfluenceScore >= 0.6
}

// IsBearishConfluence returns true if majority of timeframes are bearish
func (mr *MTFResult) IsBearishConfluence() bool {
	return mr.DominantTrend == MTFTrendBearish && mr.ConfluenceScore >= 0.6
}

// HasStrongConfluence returns true if confluence is very high
func (mr *MTFResult) HasStrongConfluence() bool {
	return mr.ConfluenceScore >= 0.8
}
