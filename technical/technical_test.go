package technical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestAnalyzeVolatility(t *testing.T) {
	tests := []struct {
		name       string
		ranges     []float64
		timeframe  string
		wantTrend  string
		wantStop   float64
		wantTarget float64
		wantPct    float64
	}{
		{
			name:       "increasing on 15m",
			ranges:     []float64{20, 20, 20, 20, 30, 30, 30},
			timeframe:  "15m",
			wantTrend:  VolatilityIncreasing,
			wantStop:   24,
			wantTarget: 45,
			wantPct:    57.1,
		},
		{
			name:       "decreasing hits minimum stop",
			ranges:     []float64{40, 40, 40, 10, 10, 10},
			timeframe:  "1m",
			wantTrend:  VolatilityDecreasing,
			wantStop:   15,
			wantTarget: 22.5,
			wantPct:    0,
		},
		{
			name:       "short series is stable",
			ranges:     []float64{25, 30},
			timeframe:  "unknown",
			wantTrend:  VolatilityStable,
			wantStop:   24,
			wantTarget: 45,
			wantPct:    50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnalyzeVolatility(tt.ranges, tt.timeframe)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrend, got.VolatilityTrend)
			assert.InDelta(t, tt.wantStop, got.RecommendedStopDistance, 1e-9)
			assert.InDelta(t, tt.wantTarget, got.RecommendedTargetDistance, 1e-9)
			assert.InDelta(t, tt.wantPct, got.VolatilityPercentile, 1e-9)
		})
	}
}

func TestAnalyzeVolatilityAverage(t *testing.T) {
	got, err := AnalyzeVolatility([]float64{10, 20, 30, 40}, "1h")
	require.NoError(t, err)
	assert.InDelta(t, 25, got.AverageVolatility, 1e-9)
	assert.InDelta(t, 40, got.CurrentVolatility, 1e-9)

	_, err = AnalyzeVolatility(nil, "1h")
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyzeTrend(t *testing.T) {
	up, err := AnalyzeTrend(ramp(250, 100, 0.5), "1h")
	require.NoError(t, err)
	assert.Equal(t, AlignmentBullish, up.Alignment)
	assert.Equal(t, DirectionStrongUp, up.Direction)
	assert.InDelta(t, 0.9, up.Strength, 1e-9)

	down, err := AnalyzeTrend(ramp(250, 300, -0.5), "1h")
	require.NoError(t, err)
	assert.Equal(t, AlignmentBearish, down.Alignment)
	assert.Equal(t, DirectionStrongDown, down.Direction)

	_, err = AnalyzeTrend(ramp(50, 100, 1), "1h")
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMultiTimeframe(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("all bullish", func(t *testing.T) {
		res := MultiTimeframe(map[string][]float64{
			"5m":  {100, 100.5, 101},
			"1h":  {100, 101, 102},
			"15m": {100, 100.2, 100.8},
		}, now)
		require.Len(t, res.Analyses, 3)
		assert.Equal(t, []string{"5m", "15m", "1h"}, []string{
			res.Analyses[0].Timeframe, res.Analyses[1].Timeframe, res.Analyses[2].Timeframe,
		})
		assert.Equal(t, MTFTrendBullish, res.DominantTrend)
		assert.Equal(t, 3, res.AgreementCount)
		assert.InDelta(t, 1.0, res.ConfluenceScore, 1e-9)
		assert.True(t, res.HasStrongConfluence())
		assert.True(t, res.IsBullishConfluence())
	})

	t.Run("higher timeframe outweighs", func(t *testing.T) {
		res := MultiTimeframe(map[string][]float64{
			"1m": {100, 99, 98},
			"1h": {100, 101, 102},
			"4h": {100, 101, 102},
		}, now)
		assert.Equal(t, MTFTrendBullish, res.DominantTrend)
		// (2.5 + 3.0) / (1.0 + 2.5 + 3.0)
		assert.InDelta(t, 5.5/6.5, res.ConfluenceScore, 1e-9)
	})

	t.Run("no usable series", func(t *testing.T) {
		res := MultiTimeframe(map[string][]float64{"1m": {1}}, now)
		assert.Empty(t, res.Analyses)
		assert.Equal(t, MTFTrendNeutral, res.DominantTrend)
		assert.InDelta(t, 0.5, res.ConfluenceScore, 1e-9)
	})
}
