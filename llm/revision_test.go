package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRevisionPrompt(t *testing.T) {
	out := BuildRevisionPrompt(RevisionInput{
		Analysis: "ポイント1でロング",
		Comment:  "4時間足は下落トレンドでは?",
		Reason:   "上位足を考慮",
		Sections: map[string]string{"entry_point": "押し目待ち", "direction": "ショートに修正"},
	})

	assert.Contains(t, out, "【元の分析】\nポイント1でロング\n")
	assert.Contains(t, out, "【修正理由】\n上位足を考慮\n")
	assert.Contains(t, out, "【コメント内容】\n4時間足は下落トレンドでは?\n")
	assert.Contains(t, out, "【修正すべき箇所】\ndirection: ショートに修正\nentry_point: 押し目待ち\n")
	assert.Contains(t, out, "修正後の完全な分析を出力してください。")
}

func TestBuildRevisionCheckPromptTruncates(t *testing.T) {
	long := strings.Repeat("あ", maxCheckAnalysisRunes+50)

	out := BuildRevisionCheckPrompt(long, "コメント")
	assert.Contains(t, out, strings.Repeat("あ", maxCheckAnalysisRunes)+"...")
	assert.NotContains(t, out, strings.Repeat("あ", maxCheckAnalysisRunes+1))

	out = BuildRevisionCheckPrompt("short", "コメント")
	assert.Contains(t, out, "【元の分析】\nshort\n")
}

func TestParseRevisionSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantNeeds  bool
		wantConf   float64
		wantReason string
		wantExpl   string
	}{
		{
			name:       "plain json",
			text:       `{"needs_revision":true,"confidence":0.8,"suggested_reason":"上位足","suggested_sections":{"direction":"short"},"explanation":"trend"}`,
			wantNeeds:  true,
			wantConf:   0.8,
			wantReason: "上位足",
			wantExpl:   "trend",
		},
		{
			name:      "fenced with prose",
			text:      "判断結果です\n```json\n{\"needs_revision\":false,\"confidence\":0.4,\"explanation\":\"問題なし\"}\n```",
			wantNeeds: false,
			wantConf:  0.4,
			wantExpl:  "問題なし",
		},
		{
			name:      "confidence clamped",
			text:      `{"needs_revision":true,"confidence":3,"explanation":"x"}`,
			wantNeeds: true,
			wantConf:  1,
			wantExpl:  "x",
		},
		{
			name:     "not json",
			text:     "修正は不要です",
			wantExpl: "コメントの分析に失敗しました",
		},
		{
			name:     "broken json",
			text:     `{"needs_revision": tru`,
			wantExpl: "コメントの分析に失敗しました",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseRevisionSuggestion(tt.text)
			require.NotNil(t, s)
			assert.Equal(t, tt.wantNeeds, s.NeedsRevision)
			assert.InDelta(t, tt.wantConf, s.Confidence, 1e-9)
			assert.Equal(t, tt.wantReason, s.SuggestedReason)
			assert.Equal(t, tt.wantExpl, s.Explanation)
		})
	}
}

func TestReviseAnalysis(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, "\n【修正】ショート目線\n")
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model")
	text, err := c.ReviseAnalysis(context.Background(), RevisionInput{Analysis: "a", Reason: "r"})
	require.NoError(t, err)
	assert.Equal(t, "【修正】ショート目線", text)
}

func TestReviseAnalysisEmptyReply(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, "   ")
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model")
	_, err := c.ReviseAnalysis(context.Background(), RevisionInput{Analysis: "a"})
	assert.Error(t, err)
}

func TestSuggestRevision(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, `{"needs_revision":true,"confidence":0.7,"explanation":"上位足と矛盾"}`)
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model")
	s, err := c.SuggestRevision(context.Background(), "analysis", "comment")
	require.NoError(t, err)
	assert.True(t, s.NeedsRevision)
	assert.InDelta(t, 0.7, s.Confidence, 1e-9)
}
