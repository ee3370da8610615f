package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazumae/fx-forecast-backend/patterns"
)

var exportNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubLearningSource struct {
	since time.Time
}

func (s *stubLearningSource) GetLearningForecasts(_ context.Context, since time.Time) ([]patterns.LearningForecast, error) {
	s.since = since
	md := &patterns.ReviewMetadata{}
	md.Lessons.SuccessFactors = []string{"200EMAでの反発を待った"}
	return []patterns.LearningForecast{
		{
			ID:           1,
			CurrencyPair: "XAUUSD",
			Response:     "ポイント1の押し目",
			CreatedAt:    exportNow.Add(-48 * time.Hour),
			Reviews:      []patterns.LearningReview{{Outcome: patterns.OutcomeLongSuccess, Metadata: md}},
		},
	}, nil
}

func (s *stubLearningSource) CountUserQuestions(context.Context, time.Time) (int, error) {
	return 4, nil
}

type stubInsights struct{}

func (stubInsights) GetInsights(context.Context, time.Time, int) ([]patterns.TradeInsight, error) {
	return []patterns.TradeInsight{{Score: 8, GoodPoints: []string{"損切り厳守"}, Timeframe: "1h", CreatedAt: exportNow.Add(-time.Hour)}}, nil
}

func newTestExporter(t *testing.T) (*LearningExporter, *stubLearningSource) {
	t.Helper()
	src := &stubLearningSource{}
	e := NewLearningExporter(src, stubInsights{}, t.TempDir(), nil, nil)
	e.Now = func() time.Time { return exportNow }
	return e, src
}

func TestLearningExporterCompileWritesBothFiles(t *testing.T) {
	e, src := newTestExporter(t)

	data, paths, err := e.Compile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, exportNow.Add(-7*24*time.Hour), src.since)

	require.Len(t, paths, 2)
	assert.Equal(t, "learning_data_20250601_120000.txt", filepath.Base(paths[0]))
	assert.Equal(t, "learning_data_20250601_120000.json", filepath.Base(paths[1]))
	assert.FileExists(t, paths[1])

	text, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(text), "point_1: 100.0% (成功1/1回)")
	assert.Contains(t, string(text), "分析されたQ&A数: 4")

	tally := data.PatternSuccessRates[patterns.Point1]
	assert.Equal(t, 1, tally.Success)
	assert.Equal(t, []string{"200EMAでの反発を待った"}, data.BestPractices)
	assert.Len(t, data.TradeExecutionInsights, 1)
}

func TestLearningExporterLoadRecent(t *testing.T) {
	e, _ := newTestExporter(t)

	_, _, err := e.Compile(context.Background(), 30)
	require.NoError(t, err)

	// stale and malformed snapshots are ignored
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "learning_data_20240101_000000.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "learning_data_20250531_000000.json"), []byte(`{broken`), 0o644))

	snapshots, err := e.LoadRecent(7)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 4, snapshots[0].QuestionCount)

	summary, n, err := e.Summary(7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, summary, "point_1")
}

func TestLearningExporterEmptyDir(t *testing.T) {
	e, _ := newTestExporter(t)

	summary, n, err := e.Summary(30)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No recent learning data available", summary)
}

func TestLearningExporterDailyReport(t *testing.T) {
	tests := []struct {
		name        string
		compile     bool
		wantSummary string
	}{
		{"with snapshots", true, "point_1"},
		{"without snapshots", false, "No recent learning data available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExporter(t)
			if tt.compile {
				_, _, err := e.Compile(context.Background(), 30)
				require.NoError(t, err)
			}

			path, err := e.DailyReport(0)
			require.NoError(t, err)
			assert.Equal(t, "daily_report_20250601.txt", filepath.Base(path))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			text := string(raw)
			assert.True(t, strings.HasPrefix(text, "FX予測システム 日次学習レポート\n生成日時: 2025-06-01 12:00:00\n"))
			assert.Contains(t, text, tt.wantSummary)
			assert.True(t, strings.HasSuffix(text, "このレポートは過去30日間の蓄積データから生成されています。\n"))

			// reports are not mistaken for snapshots
			snapshots, err := e.LoadRecent(30)
			require.NoError(t, err)
			if tt.compile {
				assert.Len(t, snapshots, 1)
			} else {
				assert.Empty(t, snapshots)
			}
		})
	}
}
