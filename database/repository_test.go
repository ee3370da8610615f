package database

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kazumae/fx-forecast-backend/patterns"
)

func TestToHistoricalRecords(t *testing.T) {
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	forecast := func(reviews ...ForecastReview) ForecastRequest {
		return ForecastRequest{
			ID:           11,
			CurrencyPair: "XAUUSD",
			Response:     "ポイント1で押し目買い",
			Timeframes:   pq.StringArray{"5m", "1h"},
			CreatedAt:    created,
			Reviews:      reviews,
		}
	}

	tests := []struct {
		name      string
		forecast  ForecastRequest
		wantOut   patterns.Outcome
		wantNotes string
	}{
		{
			name:     "no reviews",
			forecast: forecast(),
			wantOut:  patterns.OutcomeNone,
		},
		{
			name:      "single review from text",
			forecast:  forecast(ForecastReview{ReviewResponse: "ロングが成功しました", AccuracyNotes: "entry on time"}),
			wantOut:   patterns.OutcomeLongSuccess,
			wantNotes: "entry on time",
		},
		{
			name: "newest review wins",
			forecast: forecast(
				ForecastReview{ReviewResponse: "short failed", AccuracyNotes: "newest"},
				ForecastReview{ReviewResponse: "long success", AccuracyNotes: "older"},
			),
			wantOut:   patterns.OutcomeShortFailure,
			wantNotes: "newest",
		},
		{
			name:     "explicit outcome beats text",
			forecast: forecast(ForecastReview{ReviewResponse: "long success", ActualOutcome: "neutral"}),
			wantOut:  patterns.OutcomeNeutral,
		},
		{
			name:     "unrecognised explicit outcome",
			forecast: forecast(ForecastReview{ActualOutcome: "breakeven"}),
			wantOut:  patterns.OutcomeUnknown,
		},
		{
			name:     "text without direction",
			forecast: forecast(ForecastReview{ReviewResponse: "成功"}),
			wantOut:  patterns.OutcomeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := toHistoricalRecords([]ForecastRequest{tt.forecast})
			require.Len(t, records, 1)

			rec := records[0]
			assert.Equal(t, int64(11), rec.ID)
			assert.Equal(t, "XAUUSD", rec.CurrencyPair)
			assert.Equal(t, []string{"5m", "1h"}, rec.Timeframes)
			assert.Equal(t, "ポイント1で押し目買い", rec.AnalysisText)
			assert.Equal(t, created, rec.CreatedAt)
			assert.Equal(t, tt.wantOut, rec.Outcome)
			assert.Equal(t, tt.wantNotes, rec.AccuracyNotes)
		})
	}
}

func TestToHistoricalRecordsEmpty(t *testing.T) {
	records := toHistoricalRecords(nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestDecodeReviewMetadata(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantOK    bool
		wantPoint string
		wantScore float64
	}{
		{"empty", "", false, "", 0},
		{"json null", "null", false, "", 0},
		{"malformed", `{"pattern":`, false, "", 0},
		{"wrong shape", `["a","b"]`, false, "", 0},
		{"valid", `{"pattern":{"result":"success","kamukamu_point":"ポイント2"},"statistics":{"total_score":7.5},"key_takeaway":"wait"}`, true, "ポイント2", 7.5},
		{"unknown keys ignored", `{"extra":1}`, true, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, ok := decodeReviewMetadata(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPoint, md.Pattern.KamukamuPoint)
			assert.InDelta(t, tt.wantScore, md.Statistics.TotalScore, 1e-9)
		})
	}
}

func TestWarnIfCapped(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		wantWarn bool
	}{
		{"empty", 0, false},
		{"below cap", MaxHistoricalRecords - 1, false},
		{"at cap", MaxHistoricalRecords, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			r := NewForecastRepository(nil, zap.New(core))

			assert.Equal(t, tt.wantWarn, r.warnIfCapped("GetAllHistoricalRecords", tt.n))
			if !tt.wantWarn {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			fields := logs.All()[0].ContextMap()
			assert.Equal(t, "GetAllHistoricalRecords", fields["operation"])
			assert.EqualValues(t, MaxHistoricalRecords, fields["limit"])
		})
	}
}
