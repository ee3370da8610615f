package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/metrics"
	"github.com/kazumae/fx-forecast-backend/patterns"
)

const (
	learningFilePrefix = "learning_data_"
	learningTimeLayout = "20060102_150405"
	maxLearningTrades  = 200

	dailyReportPrefix = "daily_report_"
	dailyReportLayout = "20060102"
	dailyReportRule   = "================================================================================"
)

// LearningSource reads reviewed forecasts and question counts
type LearningSource interface {
	GetLearningForecasts(ctx context.Context, since time.Time) ([]patterns.LearningForecast, error)
	CountUserQuestions(ctx context.Context, since time.Time) (int, error)
}

// InsightSource reads trade review insights
type InsightSource interface {
	GetInsights(ctx context.Context, since time.Time, limit int) ([]patterns.TradeInsight, error)
}

// LearningExporter compiles learning data and writes it to disk as text and JSON
type LearningExporter struct {
	forecasts LearningSource
	trades    InsightSource
	dir       string
	logger    *zap.Logger
	metrics   *metrics.Metrics
	Now       func() time.Time
}

// NewLearningExporter creates an exporter writing into dir
func NewLearningExporter(forecasts LearningSource, trades InsightSource, dir string, logger *zap.Logger, m *metrics.Metrics) *LearningExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LearningExporter{
		forecasts: forecasts,
		trades:    trades,
		dir:       dir,
		logger:    logger,
		metrics:   m,
		Now:       time.Now,
	}
}

// Compile gathers the last days of data, compiles it and writes the text and
// JSON files. It returns the snapshot and the written paths.
func (e *LearningExporter) Compile(ctx context.Context, days int) (patterns.LearningData, []string, error) {
	if days <= 0 {
		days = patterns.DefaultWindowDays
	}
	now := e.Now().UTC()
	since := now.Add(-time.Duration(days) * 24 * time.Hour)

	forecasts, err := e.forecasts.GetLearningForecasts(ctx, since)
	if err != nil {
		return patterns.LearningData{}, nil, fmt.Errorf("Compile: %w", err)
	}
	questions, err := e.forecasts.CountUserQuestions(ctx, since)
	if err != nil {
		return patterns.LearningData{}, nil, fmt.Errorf("Compile: %w", err)
	}
	var trades []patterns.TradeInsight
	if e.trades != nil {
		if trades, err = e.trades.GetInsights(ctx, since, maxLearningTrades); err != nil {
			return patterns.LearningData{}, nil, fmt.Errorf("Compile: %w", err)
		}
	}

	data := patterns.CompileLearning(patterns.LearningInput{
		Forecasts:     forecasts,
		Trades:        trades,
		UserQuestions: questions,
	}, now, days)

	paths, err := e.write(data, now)
	if err != nil {
		return patterns.LearningData{}, nil, err
	}
	if e.metrics != nil {
		e.metrics.LearningCompiled.Inc()
	}
	e.logger.Info("✅ Learning data compiled",
		zap.Strings("files", paths),
		zap.Int("forecasts", len(forecasts)),
		zap.Int("patterns", len(data.PatternSuccessRates)),
	)
	return data, paths, nil
}

func (e *LearningExporter) write(data patterns.LearningData, now time.Time) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create learning dir: %w", err)
	}

	base := filepath.Join(e.dir, learningFilePrefix+now.Format(learningTimeLayout))
	textPath, jsonPath := base+".txt", base+".json"

	if err := os.WriteFile(textPath, []byte(patterns.FormatLearning(data)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write learning text: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode learning data: %w", err)
	}
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write learning json: %w", err)
	}
	return []string{textPath, jsonPath}, nil
}

// LoadRecent reads the JSON snapshots compiled within the last days, oldest first.
// Unreadable files are skipped.
func (e *LearningExporter) LoadRecent(days int) ([]patterns.LearningData, error) {
	if days <= 0 {
		days = patterns.DefaultWindowDays
	}
	cutoff := e.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	paths, err := filepath.Glob(filepath.Join(e.dir, learningFilePrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("LoadRecent: %w", err)
	}
	sort.Strings(paths)

	var out []patterns.LearningData
	for _, p := range paths {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), learningFilePrefix), ".json")
		ts, err := time.Parse(learningTimeLayout, stamp)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			e.logger.Warn("⚠️  Skipping unreadable learning file", zap.String("file", p), zap.Error(err))
			continue
		}
		var data patterns.LearningData
		if err := json.Unmarshal(raw, &data); err != nil {
			e.logger.Warn("⚠️  Skipping malformed learning file", zap.String("file", p), zap.Error(err))
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

// Summary merges recent snapshots into a prompt-ready report
func (e *LearningExporter) Summary(days int) (string, int, error) {
	snapshots, err := e.LoadRecent(days)
	if err != nil {
		return "", 0, err
	}
	return patterns.SummarizeLearning(snapshots), len(snapshots), nil
}

// DailyReport writes the merged summary of the last days of snapshots to
// daily_report_YYYYMMDD.txt, replacing any report from the same day
func (e *LearningExporter) DailyReport(days int) (string, error) {
	if days <= 0 {
		days = patterns.DefaultWindowDays
	}
	summary, n, err := e.Summary(days)
	if err != nil {
		return "", fmt.Errorf("DailyReport: %w", err)
	}
	now := e.Now()

	var sb strings.Builder
	sb.WriteString("FX予測システム 日次学習レポート\n")
	fmt.Fprintf(&sb, "生成日時: %s\n", now.Format("2006-01-02 15:04:05"))
	sb.WriteString(dailyReportRule + "\n\n")
	sb.WriteString(summary)
	sb.WriteString("\n\n" + dailyReportRule + "\n")
	fmt.Fprintf(&sb, "このレポートは過去%d日間の蓄積データから生成されています。\n", days)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create learning dir: %w", err)
	}
	path := filepath.Join(e.dir, dailyReportPrefix+now.Format(dailyReportLayout)+".txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write daily report: %w", err)
	}

	e.logger.Info("📰 Daily learning report written", zap.String("file", path), zap.Int("snapshots", n))
	return path, nil
}
