package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOutcome(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		explicit string
		want     Outcome
	}{
		{"explicit wins over text", "short failed badly", "long_success", OutcomeLongSuccess},
		{"explicit neutral", "", "neutral", OutcomeNeutral},
		{"explicit garbage", "long success", "maybe", OutcomeUnknown},
		{"japanese long success", "ロングで成功しました", "", OutcomeLongSuccess},
		{"english short success", "Short SUCCESS at resistance", "", OutcomeShortSuccess},
		{"english short failure", "short trade failed", "", OutcomeShortFailure},
		{"japanese long failure", "ロングは失敗", "", OutcomeLongFailure},
		{"success without direction", "success overall", "", OutcomeUnknown},
		{"empty", "", "", OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractOutcome(tt.text, tt.explicit))
		})
	}
}

func TestOutcomeClassification(t *testing.T) {
	assert.True(t, OutcomeLongSuccess.IsSuccess())
	assert.True(t, OutcomeShortSuccess.IsSuccess())
	assert.True(t, OutcomeLongFailure.IsFailure())
	assert.True(t, OutcomeShortFailure.IsFailure())

	for _, o := range []Outcome{OutcomeNeutral, OutcomeUnknown, OutcomeNone} {
		assert.False(t, o.IsSuccess(), o)
		assert.False(t, o.IsFailure(), o)
	}
}
