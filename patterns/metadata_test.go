package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func meta(result, point string, score float64, success, failure, zones []string) ReviewMetadata {
	var m ReviewMetadata
	m.Pattern.Result = result
	m.Pattern.KamukamuPoint = point
	m.Statistics.TotalScore = score
	m.Lessons.SuccessFactors = success
	m.Lessons.FailureFactors = failure
	m.Lessons.CautionZones = zones
	return m
}

func TestSummarizeMetadata(t *testing.T) {
	items := []ReviewMetadata{
		meta("success", "ポイント1", 8, []string{"waited for close", "trend aligned"}, nil, []string{"2350"}),
		meta("failure", "ポイント2", 4, []string{"trend aligned"}, []string{"entered early"}, []string{"2330", "2350"}),
		meta("success", "ポイント1", 9, []string{"a", "b", "c", "d"}, nil, nil),
		meta("", "", 3, nil, []string{"entered early"}, nil),
	}

	items[0].KeyTakeaway = "wait for the candle close"
	items[2].KeyTakeaway = "wait for the candle close"
	items[3].KeyTakeaway = "respect the caution zone"

	s := SummarizeMetadata(items)

	assert.Equal(t, 4, s.TotalReviews)
	assert.InDelta(t, 50.0, s.SuccessRate, 1e-9)
	assert.Equal(t, []string{"waited for close", "trend aligned", "a", "b", "c"}, s.CommonSuccessFactors)
	assert.Equal(t, []string{"entered early"}, s.CommonFailureFactors)
	assert.Equal(t, []string{"2330", "2350"}, s.CautionZones)
	assert.Equal(t, map[string]int{"ポイント1": 2, "ポイント2": 1, "unknown": 1}, s.PatternUsage)
	assert.InDelta(t, 6.0, s.AverageScore, 1e-9)
	assert.Equal(t, []string{"ポイント1", "unknown"}, s.TopPatternUsage(2))
	assert.Equal(t, []string{"wait for the candle close", "respect the caution zone"}, s.KeyTakeaways)
}

func TestSummarizeMetadataEmpty(t *testing.T) {
	assert.Equal(t, MetadataSummary{}, SummarizeMetadata(nil))
}
