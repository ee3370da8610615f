package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDisabled is returned by features that need the LLM when it is turned off
var ErrDisabled = errors.New("llm is disabled")

const (
	reviseSystemPrompt = "あなたはFX分析の専門家です。既存の分析を、新しい洞察に基づいて適切に修正してください。"
	checkSystemPrompt  = "分析の修正が必要かどうかを判断する専門家として回答してください。JSONのみを返してください。"

	// only the head of long analyses is sent when judging a comment
	maxCheckAnalysisRunes = 1000
)

// RevisionInput is what the model needs to rewrite an analysis
type RevisionInput struct {
	Analysis string
	Comment  string
	Reason   string
	Sections map[string]string
}

// RevisionSuggestion is the model's verdict on whether a comment warrants a revision
type RevisionSuggestion struct {
	NeedsRevision     bool              `json:"needs_revision"`
	Confidence        float64           `json:"confidence"`
	SuggestedReason   string            `json:"suggested_reason,omitempty"`
	SuggestedSections map[string]string `json:"suggested_sections,omitempty"`
	Explanation       string            `json:"explanation"`
	CommentID         int64             `json:"comment_id"`
	ForecastID        int64             `json:"forecast_id"`
}

// BuildRevisionPrompt renders the rewrite request. Sections are listed by name.
func BuildRevisionPrompt(in RevisionInput) string {
	var sb strings.Builder
	sb.WriteString("以下の分析を、コメントでの指摘に基づいて修正してください。\n\n")
	fmt.Fprintf(&sb, "【元の分析】\n%s\n\n", in.Analysis)
	fmt.Fprintf(&sb, "【修正理由】\n%s\n\n", in.Reason)
	fmt.Fprintf(&sb, "【コメント内容】\n%s\n\n", in.Comment)
	sb.WriteString("【修正すべき箇所】")
	for _, name := range sortedSectionNames(in.Sections) {
		fmt.Fprintf(&sb, "\n%s: %s", name, in.Sections[name])
	}
	sb.WriteString(`

【重要な指示】
1. 元の分析の構造とフォーマットを維持してください
2. 指定された箇所のみを修正し、他の部分は変更しないでください
3. 修正内容が分析全体と整合性が取れるようにしてください
4. 修正箇所は【修正】マークを付けて明確に示してください

修正後の完全な分析を出力してください。
`)
	return sb.String()
}

// BuildRevisionCheckPrompt asks whether comment calls for changes to analysis
func BuildRevisionCheckPrompt(analysis, comment string) string {
	if r := []rune(analysis); len(r) > maxCheckAnalysisRunes {
		analysis = string(r[:maxCheckAnalysisRunes]) + "..."
	}
	return fmt.Sprintf(`以下のコメントを分析し、元の分析に対する修正が必要かどうか判断してください。

【元の分析】
%s

【コメント】
%s

以下の形式でJSONレスポンスを返してください：
{
    "needs_revision": true/false,
    "confidence": 0.0-1.0,
    "suggested_reason": "修正理由の説明",
    "suggested_sections": {
        "セクション名": "修正内容の提案"
    },
    "explanation": "なぜ修正が必要/不要かの詳細説明"
}
`, analysis, comment)
}

// ReviseAnalysis rewrites an analysis according to the requested section changes
func (c *Client) ReviseAnalysis(ctx context.Context, in RevisionInput) (string, error) {
	messages := []Message{
		{Role: "system", Content: reviseSystemPrompt},
		{Role: "user", Content: BuildRevisionPrompt(in)},
	}

	text, err := c.ChatCompletion(ctx, messages, 0.3, 4096)
	if err != nil {
		return "", fmt.Errorf("ReviseAnalysis: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("ReviseAnalysis: empty revision")
	}
	return text, nil
}

// SuggestRevision asks the model whether comment should change analysis.
// Replies that are not valid JSON yield a negative suggestion.
func (c *Client) SuggestRevision(ctx context.Context, analysis, comment string) (*RevisionSuggestion, error) {
	messages := []Message{
		{Role: "system", Content: checkSystemPrompt},
		{Role: "user", Content: BuildRevisionCheckPrompt(analysis, comment)},
	}

	text, err := c.ChatCompletion(ctx, messages, 0.2, 1000)
	if err != nil {
		return nil, fmt.Errorf("SuggestRevision: %w", err)
	}
	return ParseRevisionSuggestion(text), nil
}

// ParseRevisionSuggestion decodes the JSON object in a model reply, tolerating
// markdown fences and surrounding prose
func ParseRevisionSuggestion(text string) *RevisionSuggestion {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var s RevisionSuggestion
		if err := json.Unmarshal([]byte(text[start:end+1]), &s); err == nil {
			s.Confidence = clamp01(s.Confidence)
			return &s
		}
	}
	return &RevisionSuggestion{Explanation: "コメントの分析に失敗しました"}
}

func sortedSectionNames(sections map[string]string) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
