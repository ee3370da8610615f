package patterns

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LearningForecast is a reviewed forecast fed into learning compilation.
type LearningForecast struct {
	ID           int64
	CurrencyPair string
	Response     string
	CreatedAt    time.Time
	Reviews      []LearningReview
}

// LearningReview carries the outcome and optional metadata of one review.
type LearningReview struct {
	Outcome  Outcome
	Metadata *ReviewMetadata
}

// TradeInsight summarizes an executed trade review.
type TradeInsight struct {
	Score             float64   `json:"score"`
	GoodPoints        []string  `json:"good_points"`
	ImprovementPoints []string  `json:"improvement_points"`
	Timeframe         string    `json:"timeframe"`
	TradeDirection    string    `json:"trade_direction,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// LearningInput is the raw material for CompileLearning.
type LearningInput struct {
	Forecasts     []LearningForecast
	Trades        []TradeInsight
	UserQuestions int
}

// PatternTally counts outcomes for one pattern.
type PatternTally struct {
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Failure     int     `json:"failure"`
	SuccessRate float64 `json:"success_rate"`
}

// LearningData is the compiled learning snapshot persisted as text and JSON.
type LearningData struct {
	CompilationDate        time.Time                   `json:"compilation_date"`
	Period                 string                      `json:"period"`
	PatternSuccessRates    map[PatternTag]PatternTally `json:"pattern_success_rates"`
	BestPractices          []string                    `json:"best_practices"`
	CommonMistakes         []string                    `json:"common_mistakes"`
	TradeExecutionInsights []TradeInsight              `json:"trade_execution_insights"`
	QuestionCount          int                         `json:"question_count"`
}

// CompileLearning folds reviewed forecasts and trade reviews created within
// the last days into a LearningData snapshot.
func CompileLearning(in LearningInput, now time.Time, days int) LearningData {
	if days <= 0 {
		days = DefaultWindowDays
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	data := LearningData{
		CompilationDate:        now,
		Period:                 fmt.Sprintf("last_%d_days", days),
		PatternSuccessRates:    make(map[PatternTag]PatternTally),
		BestPractices:          []string{},
		CommonMistakes:         []string{},
		TradeExecutionInsights: []TradeInsight{},
		QuestionCount:          in.UserQuestions,
	}

	var practices, mistakes []string
	for _, f := range in.Forecasts {
		if f.CreatedAt.Before(cutoff) || len(f.Reviews) == 0 {
			continue
		}
		tags := DetectPatterns(f.Response)
		for _, rv := range f.Reviews {
			for _, tag := range tags {
				t := data.PatternSuccessRates[tag]
				t.Total++
				switch {
				case rv.Outcome.IsSuccess():
					t.Success++
				case rv.Outcome.IsFailure():
					t.Failure++
				}
				data.PatternSuccessRates[tag] = t
			}
			if rv.Metadata != nil {
				practices = append(practices, rv.Metadata.Lessons.SuccessFactors...)
				mistakes = append(mistakes, rv.Metadata.Lessons.FailureFactors...)
			}
		}
	}

	for tag, t := range data.PatternSuccessRates {
		t.SuccessRate = successRate(t.Success, t.Failure)
		data.PatternSuccessRates[tag] = t
	}

	data.BestPractices = firstUnique(practices, 0)
	data.CommonMistakes = firstUnique(mistakes, 0)

	for _, tr := range in.Trades {
		if tr.CreatedAt.Before(cutoff) {
			continue
		}
		data.TradeExecutionInsights = append(data.TradeExecutionInsights, tr)
	}

	return data
}

// FormatLearning renders a LearningData snapshot as a readable report.
func FormatLearning(data LearningData) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80)

	sb.WriteString(rule + "\n")
	sb.WriteString("FX予測学習データ\n")
	sb.WriteString(fmt.Sprintf("作成日時: %s\n", data.CompilationDate.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("期間: %s\n", data.Period))
	sb.WriteString(rule + "\n\n")

	sb.WriteString("【パターン別成功率】\n")
	for _, tag := range sortedTags(data.PatternSuccessRates) {
		t := data.PatternSuccessRates[tag]
		if t.Total == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s: %.1f%% (成功%d/%d回)\n", tag, t.SuccessRate*100, t.Success, t.Total))
	}
	sb.WriteString("\n")

	writeBlock(&sb, "【成功要因】", data.BestPractices, 10)
	writeBlock(&sb, "【失敗要因】", data.CommonMistakes, 10)

	if n := len(data.TradeExecutionInsights); n > 0 {
		var total float64
		var good []string
		for _, tr := range data.TradeExecutionInsights {
			total += tr.Score
			good = append(good, tr.GoodPoints...)
		}
		sb.WriteString("【トレード実行の洞察】\n")
		sb.WriteString(fmt.Sprintf("  平均スコア: %.1f/10\n", total/float64(n)))
		if uniq := firstUnique(good, 5); len(uniq) > 0 {
			sb.WriteString("  よくできた点:\n")
			for _, p := range uniq {
				sb.WriteString("    - " + p + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if data.QuestionCount > 0 {
		sb.WriteString("【コメントからの洞察】\n")
		sb.WriteString(fmt.Sprintf("  分析されたQ&A数: %d\n", data.QuestionCount))
	}

	return sb.String()
}

// SummarizeLearning merges several snapshots into a short pattern success report.
func SummarizeLearning(snapshots []LearningData) string {
	if len(snapshots) == 0 {
		return "No recent learning data available"
	}

	merged := make(map[PatternTag]PatternTally)
	var practices, mistakes []string
	for _, d := range snapshots {
		for tag, t := range d.PatternSuccessRates {
			m := merged[tag]
			m.Total += t.Total
			m.Success += t.Success
			m.Failure += t.Failure
			merged[tag] = m
		}
		practices = append(practices, d.BestPractices...)
		mistakes = append(mistakes, d.CommonMistakes...)
	}

	lines := []string{"【蓄積されたパターン成功率データ】"}
	for _, tag := range sortedTags(merged) {
		t := merged[tag]
		if t.Total == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %.1f%% (成功%d/%d回)", tag, successRate(t.Success, t.Failure)*100, t.Success, t.Total))
	}
	if top := firstUnique(practices, 5); len(top) > 0 {
		lines = append(lines, "", "【成功要因トップ5】")
		for _, p := range top {
			lines = append(lines, "- "+p)
		}
	}
	if top := firstUnique(mistakes, 5); len(top) > 0 {
		lines = append(lines, "", "【失敗要因トップ5】")
		for _, m := range top {
			lines = append(lines, "- "+m)
		}
	}
	return strings.Join(lines, "\n")
}

func writeBlock(sb *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	for i, it := range items {
		if i == limit {
			break
		}
		sb.WriteString("  - " + it + "\n")
	}
	sb.WriteString("\n")
}

func sortedTags(m map[PatternTag]PatternTally) []PatternTag {
	tags := make([]PatternTag, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tagIndex(tags[i]) < tagIndex(tags[j]) })
	return tags
}
