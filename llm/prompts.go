package llm

import (
	"fmt"
	"strings"
)

const questionSystemPrompt = `あなたはFX分析の専門家アシスタントです。
提供された分析結果を参照して、ユーザーの質問に答えてください。

【重要なルール】
1. 分析内容を参照して回答してください
2. 複数時間足の情報がある場合は、全ての時間足を確認し総合的な視点で回答してください
3. 新たな予測は控えめにし、既存の分析の解説と補足に焦点を当ててください
4. 技術的な根拠を明確に示してください

【回答形式】
- 質問に対する直接的な答えを最初に提示
- 根拠を具体的に説明
- 技術的な用語は分かりやすく説明`

// QuestionContext is everything the model sees about a question
type QuestionContext struct {
	Kind           string // 予測, レビュー, トレードレビュー
	CurrencyPair   string
	Timeframes     []string
	AnalysisText   string
	Question       string
	ExtraContext   string
	PatternContext string
}

// BuildQuestionContext renders a QuestionContext into the user prompt
func BuildQuestionContext(qc QuestionContext) string {
	var sb strings.Builder

	kind := qc.Kind
	if kind == "" {
		kind = "分析"
	}
	fmt.Fprintf(&sb, "【%s情報】\n", kind)
	if qc.CurrencyPair != "" {
		fmt.Fprintf(&sb, "通貨ペア: %s\n", qc.CurrencyPair)
	}
	if len(qc.Timeframes) > 0 {
		fmt.Fprintf(&sb, "時間足: %s\n", strings.Join(qc.Timeframes, ", "))
	}

	if qc.AnalysisText != "" {
		fmt.Fprintf(&sb, "\n【%s内容】\n%s\n", kind, qc.AnalysisText)
	}
	if qc.PatternContext != "" {
		sb.WriteString("\n")
		sb.WriteString(qc.PatternContext)
		sb.WriteString("\n")
	}
	if qc.ExtraContext != "" {
		fmt.Fprintf(&sb, "\n【追加コンテキスト】\n%s\n", qc.ExtraContext)
	}

	fmt.Fprintf(&sb, "\n【質問】\n%s\n", qc.Question)
	return sb.String()
}
