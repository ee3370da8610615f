package patterns

import (
	"fmt"
	"strings"
)

// Formatting limits for the prompt context
const (
	contextMinOccurrences = 3
	contextMaxMatches     = 3
	contextMaxFactors     = 3
	contextMaxRecs        = 3
	contextRule           = "=================================================="
)

// ContextInput bundles everything the prompt context is rendered from.
type ContextInput struct {
	Summary    HistoricalPatternSummary
	Metadata   MetadataSummary
	Similar    []SimilarityMatch
	Timeframes []string
}

// ConditionsFromRequest builds a similarity query from an analysis request:
// the first timeframe and the pattern mentioned in analysisText, if any.
func ConditionsFromRequest(currencyPair string, timeframes []string, analysisText string) SimilarityQuery {
	q := SimilarityQuery{CurrencyPair: strings.ToUpper(strings.TrimSpace(currencyPair))}
	if len(timeframes) > 0 {
		q.Timeframe = timeframes[0]
	}
	if tag, ok := ExtractPattern(analysisText); ok {
		q.PatternTag = tag
	}
	return q
}

// FormatContext renders pattern statistics, review metadata and similar
// historical setups into a text block appended to LLM prompts.
func FormatContext(in ContextInput) string {
	s := in.Summary
	var sb strings.Builder
	sb.Grow(2048)

	sb.WriteString("\n\n【高度なパターン分析コンテキスト】\n")
	sb.WriteString(contextRule + "\n\n")

	sb.WriteString(fmt.Sprintf("📊 パターン別成功率（%s）:\n", s.AnalysisPeriod))
	for _, ps := range s.PatternStats {
		if ps.TotalOccurrences < contextMinOccurrences {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s: 成功率 %.1f%% （%d/%d回）\n",
			ps.PatternType, ps.SuccessRate*100, ps.SuccessCount, ps.TotalOccurrences))
	}

	sb.WriteString("\n⏰ 時間足別パフォーマンス:\n")
	for _, ts := range s.TimeframeStats {
		if ts.TotalTrades == 0 || !containsString(in.Timeframes, ts.Timeframe) {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s: 成功率 %.1f%% （%d回の取引）\n",
			ts.Timeframe, ts.SuccessRate*100, ts.TotalTrades))
	}

	md := in.Metadata
	if md.TotalReviews > 0 {
		sb.WriteString(fmt.Sprintf("\n📈 直近の実績（%d件の検証）:\n", md.TotalReviews))
		sb.WriteString(fmt.Sprintf("• 全体成功率: %.1f%%\n", md.SuccessRate))
		sb.WriteString(fmt.Sprintf("• 平均スコア: %.1f/10\n", md.AverageScore))
		if top := md.TopPatternUsage(contextMaxFactors); len(top) > 0 {
			parts := make([]string, len(top))
			for i, name := range top {
				parts[i] = fmt.Sprintf("%s(%d回)", name, md.PatternUsage[name])
			}
			sb.WriteString(fmt.Sprintf("• よく使われたポイント: %s\n", strings.Join(parts, ", ")))
		}
	}

	if chars := s.SuccessCharacteristics; len(chars.Patterns) > 0 {
		sb.WriteString("\n✅ 成功パターンの特徴:\n")
		sb.WriteString(fmt.Sprintf("• 高成功率パターン: %s\n", joinTags(chars.Patterns)))
		sb.WriteString(fmt.Sprintf("• 平均成功率: %.1f%%\n", chars.AverageRate*100))
	}

	writeList(&sb, "\n🎯 成功要因TOP3:\n", md.CommonSuccessFactors, contextMaxFactors)
	writeList(&sb, "\n⚠️ 失敗要因TOP3:\n", md.CommonFailureFactors, contextMaxFactors)
	writeList(&sb, "\n🔑 重要な教訓:\n", md.KeyTakeaways, contextMaxFactors)

	if len(in.Similar) > 0 {
		sb.WriteString("\n📝 類似の過去パターン:\n")
		for i, m := range in.Similar {
			if i == contextMaxMatches {
				break
			}
			sb.WriteString(fmt.Sprintf("\n%d. 類似度 %.1f%%:\n", i+1, m.SimilarityScore*100))
			tag := string(m.PatternTag)
			if tag == "" {
				tag = "不明"
			}
			sb.WriteString(fmt.Sprintf("   • パターン: %s\n", tag))
			sb.WriteString(fmt.Sprintf("   • 結果: %s\n", m.Outcome))
			if len(m.KeySimilarities) > 0 {
				n := min(2, len(m.KeySimilarities))
				sb.WriteString(fmt.Sprintf("   • 共通点: %s\n", strings.Join(m.KeySimilarities[:n], ", ")))
			}
			if m.AccuracyNotes != "" {
				sb.WriteString(fmt.Sprintf("   • 注意点: %s\n", m.AccuracyNotes))
			}
		}
	}

	writeList(&sb, "\n💡 推奨事項:\n", s.Recommendations, contextMaxRecs)

	if len(md.CautionZones) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚡ 要注意価格帯: %s\n", strings.Join(md.CautionZones, ", ")))
	}

	sb.WriteString(fmt.Sprintf("\n📊 データ信頼度: %.0f%%\n", s.ConfidenceScore*100))
	sb.WriteString(fmt.Sprintf("（分析期間: %s）\n", s.AnalysisPeriod))
	sb.WriteString("\n" + contextRule + "\n")
	sb.WriteString("※このコンテキストを参考に、より精度の高い分析を行ってください。\n")
	sb.WriteString("※ただし、現在の市場状況を最優先に判断してください。\n")

	return sb.String()
}

func writeList(sb *strings.Builder, header string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(header)
	for i, it := range items {
		if i == limit {
			break
		}
		sb.WriteString("• " + it + "\n")
	}
}

func joinTags(tags []PatternTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
