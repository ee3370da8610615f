package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileLearning(t *testing.T) {
	lessons := meta("success", "ポイント1", 8, []string{"patience"}, []string{"oversized"}, nil)
	in := LearningInput{
		Forecasts: []LearningForecast{
			{ID: 1, Response: "ポイント1 and point 4", CreatedAt: daysAgo(1), Reviews: []LearningReview{
				{Outcome: OutcomeLongSuccess, Metadata: &lessons},
				{Outcome: OutcomeShortFailure},
			}},
			{ID: 2, Response: "point 4", CreatedAt: daysAgo(2), Reviews: []LearningReview{{Outcome: OutcomeNeutral}}},
			{ID: 3, Response: "point 1", CreatedAt: daysAgo(3)},
			{ID: 4, Response: "point 1", CreatedAt: daysAgo(45), Reviews: []LearningReview{{Outcome: OutcomeLongSuccess}}},
		},
		Trades: []TradeInsight{
			{Score: 7, GoodPoints: []string{"clean entry"}, Timeframe: "5m", CreatedAt: daysAgo(1)},
			{Score: 2, CreatedAt: daysAgo(90)},
		},
		UserQuestions: 3,
	}

	data := CompileLearning(in, testNow, 30)

	assert.Equal(t, "last_30_days", data.Period)
	assert.Equal(t, PatternTally{Total: 2, Success: 1, Failure: 1, SuccessRate: 0.5}, data.PatternSuccessRates[Point1])
	assert.Equal(t, PatternTally{Total: 3, Success: 1, Failure: 1, SuccessRate: 0.5}, data.PatternSuccessRates[Point4])
	assert.Equal(t, []string{"patience"}, data.BestPractices)
	assert.Equal(t, []string{"oversized"}, data.CommonMistakes)
	require.Len(t, data.TradeExecutionInsights, 1)
	assert.Equal(t, 3, data.QuestionCount)

	text := FormatLearning(data)
	assert.Contains(t, text, "FX予測学習データ")
	assert.Contains(t, text, "  point_1: 50.0% (成功1/2回)")
	assert.Contains(t, text, "  平均スコア: 7.0/10")
	assert.Contains(t, text, "    - clean entry")
	assert.Contains(t, text, "  分析されたQ&A数: 3")
	assert.Less(t, strings.Index(text, "point_1:"), strings.Index(text, "point_4:"))
}

func TestSummarizeLearning(t *testing.T) {
	assert.Equal(t, "No recent learning data available", SummarizeLearning(nil))

	a := LearningData{
		PatternSuccessRates: map[PatternTag]PatternTally{Point2: {Total: 2, Success: 1, Failure: 1}},
		BestPractices:       []string{"patience"},
	}
	b := LearningData{
		PatternSuccessRates: map[PatternTag]PatternTally{Point2: {Total: 2, Success: 2}},
		CommonMistakes:      []string{"chasing"},
	}

	out := SummarizeLearning([]LearningData{a, b})

	assert.Contains(t, out, "- point_2: 75.0% (成功3/4回)")
	assert.Contains(t, out, "【成功要因トップ5】\n- patience")
	assert.Contains(t, out, "【失敗要因トップ5】\n- chasing")
}
