package technical

import (
	"math"

	"github.com/markcheno/go-talib"
)

// EMA periods used for trend alignment
const (
	FastEMAPeriod   = 20
	MediumEMAPeriod = 75
	SlowEMAPeriod   = 200
)

// EMA alignment labels
const (
	AlignmentBullish = "bullish"
	AlignmentBearish = "bearish"
	AlignmentMixed   = "mixed"
)

// Trend directions
const (
	DirectionStrongUp   = "strong_up"
	DirectionUp         = "up"
	DirectionSideways   = "sideways"
	DirectionDown       = "down"
	DirectionStrongDown = "strong_down"
)

// TrendAnalysis is the EMA based trend for one timeframe
type TrendAnalysis struct {
	Timeframe          string  `json:"timeframe"`
	Price              float64 `json:"price"`
	EMA20              float64 `json:"ema20"`
	EMA75              float64 `json:"ema75"`
	EMA200             float64 `json:"ema200"`
	Alignment          string  `json:"ema_alignment"`
	Direction          string  `json:"direction"`
	Strength           float64 `json:"strength"`
	DistanceFrom200EMA float64 `json:"distance_from_200ema"`
}

// AnalyzeTrend computes EMA 20/75/200 over closes ordered oldest to newest.
// At least SlowEMAPeriod closes are required.
func AnalyzeTrend(closes []float64, timeframe string) (TrendAnalysis, error) {
	if len(closes) < SlowEMAPeriod {
		return TrendAnalysis{}, ErrInsufficientData
	}

	last := len(closes) - 1
	ta := TrendAnalysis{
		Timeframe: timeframe,
		Price:     closes[last],
		EMA20:     talib.Ema(closes, FastEMAPeriod)[last],
		EMA75:     talib.Ema(closes, MediumEMAPeriod)[last],
		EMA200:    talib.Ema(closes, SlowEMAPeriod)[last],
	}

	switch {
	case ta.EMA20 > ta.EMA75 && ta.EMA75 > ta.EMA200:
		ta.Alignment = AlignmentBullish
	case ta.EMA20 < ta.EMA75 && ta.EMA75 < ta.EMA200:
		ta.Alignment = AlignmentBearish
	default:
		ta.Alignment = AlignmentMixed
	}

	ta.DistanceFrom200EMA = math.Abs(ta.Price - ta.EMA200)

	switch {
	case ta.Price > ta.EMA200 && ta.Alignment == AlignmentBullish:
		ta.Direction, ta.Strength = DirectionStrongUp, 0.9
	case ta.Price > ta.EMA200:
		ta.Direction, ta.Strength = DirectionUp, 0.7
	case ta.Price < ta.EMA200 && ta.Alignment == AlignmentBearish:
		ta.Direction, ta.Strength = DirectionStrongDown, 0.9
	case ta.Price < ta.EMA200:
		ta.Direction, ta.Strength = DirectionDown, 0.7
	default:
		ta.Direction, ta.Strength = DirectionSideways, 0.5
	}

	return ta, nil
}
