// Package technical derives volatility, EMA trend and multi-timeframe
// confluence figures from raw price series.
package technical

import (
	"errors"
	"math"
	"sort"

	"github.com/markcheno/go-talib"
)

// ErrInsufficientData is returned when a series is too short for the indicator
var ErrInsufficientData = errors.New("insufficient price data")

// Volatility trend labels
const (
	VolatilityIncreasing = "increasing"
	VolatilityDecreasing = "decreasing"
	VolatilityStable     = "stable"
)

// Stop and target sizing
const (
	MinStopDistance  = 15.0
	StopFactor       = 0.8
	TargetFactor     = 1.5
	MinRewardToRisk  = 1.5
	trendWindow      = 3
	increasingFactor = 1.2
	decreasingFactor = 0.8
)

// VolatilityAnalysis summarises recent candle ranges (in pips)
type VolatilityAnalysis struct {
	Timeframe                 string  `json:"timeframe"`
	CurrentVolatility         float64 `json:"current_volatility"`
	AverageVolatility         float64 `json:"average_volatility"`
	VolatilityPercentile      float64 `json:"volatility_percentile"`
	VolatilityTrend           string  `json:"volatility_trend"`
	RecommendedStopDistance   float64 `json:"recommended_stop_distance"`
	RecommendedTargetDistance float64 `json:"recommended_target_distance"`
}

var timeframeMultipliers = map[string]float64{
	"1m": 0.5, "1分": 0.5,
	"5m": 0.7, "5分": 0.7,
	"15m": 1.0, "15分": 1.0,
	"30m": 1.2, "30分": 1.2,
	"1h": 1.5, "1時間": 1.5,
	"4h": 2.0, "4時間": 2.0,
	"1d": 3.0, "日足": 3.0,
}

// TimeframeMultiplier scales stop and target distances; unknown timeframes get 1.0
func TimeframeMultiplier(timeframe string) float64 {
	if m, ok := timeframeMultipliers[timeframe]; ok {
		return m
	}
	return 1.0
}

// AnalyzeVolatility evaluates ranges ordered oldest to newest.
func AnalyzeVolatility(ranges []float64, timeframe string) (VolatilityAnalysis, error) {
	if len(ranges) == 0 {
		return VolatilityAnalysis{}, ErrInsufficientData
	}

	current := ranges[len(ranges)-1]
	sma := talib.Sma(ranges, len(ranges))
	average := sma[len(sma)-1]

	sorted := append([]float64(nil), ranges...)
	sort.Float64s(sorted)
	position := sort.SearchFloat64s(sorted, current)

	result := VolatilityAnalysis{
		Timeframe:            timeframe,
		CurrentVolatility:    current,
		AverageVolatility:    round1(average),
		VolatilityPercentile: round1(float64(position) / float64(len(sorted)) * 100),
		VolatilityTrend:      volatilityTrend(ranges),
	}

	m := TimeframeMultiplier(timeframe)
	stop := math.Max(current*StopFactor*m, MinStopDistance)
	target := math.Max(current*TargetFactor*m, stop*MinRewardToRisk)
	result.RecommendedStopDistance = round1(stop)
	result.RecommendedTargetDistance = round1(target)

	return result, nil
}

// volatilityTrend compares the last three ranges with everything before them
func volatilityTrend(ranges []float64) string {
	if len(ranges) <= trendWindow {
		return VolatilityStable
	}
	recent := mean(ranges[len(ranges)-trendWindow:])
	older := mean(ranges[:len(ranges)-trendWindow])

	switch {
	case recent > older*increasingFactor:
		return VolatilityIncreasing
	case recent < older*decreasingFactor:
		return VolatilityDecreasing
	default:
		return VolatilityStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
