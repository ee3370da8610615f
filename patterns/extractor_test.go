package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPattern(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   PatternTag
		wantOK bool
	}{
		{"japanese point 1", "ポイント1でロングエントリー", Point1, true},
		{"english upper case", "Point 2 breakout confirmed", Point2, true},
		{"point 3-1 compact", "looks like point3-1 retest", Point31, true},
		{"point 3-2 spaced", "point 3-2 after the pullback", Point32, true},
		{"japanese sub variant", "ポイント3-1の形", Point31, true},
		{"underscore separator", "POINT_9 reversal", Point9, true},
		{"priority beats position", "point 2 first, then point 1", Point1, true},
		{"no pattern", "trend is unclear today", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPattern(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPatternDeterministic(t *testing.T) {
	text := "ポイント4 and point 7 both visible"
	first, _ := ExtractPattern(text)
	for i := 0; i < 50; i++ {
		got, _ := ExtractPattern(text)
		assert.Equal(t, first, got)
	}
	assert.Equal(t, Point4, first)
}

func TestDetectPatterns(t *testing.T) {
	assert.Equal(t, []PatternTag{Point1, Point5}, DetectPatterns("point 5 inside point 1 zone"))
	assert.Empty(t, DetectPatterns("nothing"))
}

func TestParsePatternTag(t *testing.T) {
	tag, ok := ParsePatternTag("point_3_2")
	assert.True(t, ok)
	assert.Equal(t, Point32, tag)

	_, ok = ParsePatternTag("point_10")
	assert.False(t, ok)
	assert.Len(t, AllTags(), 10)
}
