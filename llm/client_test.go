package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCompletion(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ChatRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			assert.Equal(t, "test-model", req.Model)
			if assert.Len(t, req.Messages, 2) {
				assert.Equal(t, "system", req.Messages[0].Role)
			}
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestAnswerQuestion(t *testing.T) {
	srv := fakeCompletion(t, http.StatusOK, "  おそらく上昇トレンドが続く可能性があります  ")
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", "test-model")
	ans, err := c.AnswerQuestion(context.Background(), "質問")
	require.NoError(t, err)
	assert.Equal(t, "おそらく上昇トレンドが続く可能性があります", ans.Answer)
	assert.InDelta(t, 0.6, ans.Confidence, 1e-9)
	assert.NotEmpty(t, ans.Reasoning)
}

func TestAnswerQuestionAPIError(t *testing.T) {
	srv := fakeCompletion(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model")
	_, err := c.AnswerQuestion(context.Background(), "質問")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 429")
}

func TestEstimateConfidence(t *testing.T) {
	tests := []struct {
		answer string
		want   float64
	}{
		{"その点は分析には含まれていません", 0.3},
		{"詳細は不明です", 0.3},
		{"可能性があります", 0.6},
		{"200EMAで反発しています", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimateConfidence(tt.answer), 1e-9)
		})
	}
}

func TestBuildQuestionContext(t *testing.T) {
	got := BuildQuestionContext(QuestionContext{
		Kind:         "予測",
		CurrencyPair: "XAUUSD",
		Timeframes:   []string{"1h", "4h"},
		AnalysisText: "ポイント1の押し目",
		Question:     "エントリーはどこ?",
		ExtraContext: "指標発表前",
	})

	assert.Contains(t, got, "【予測情報】")
	assert.Contains(t, got, "通貨ペア: XAUUSD")
	assert.Contains(t, got, "時間足: 1h, 4h")
	assert.Contains(t, got, "【追加コンテキスト】\n指標発表前")
	assert.Contains(t, got, "【質問】\nエントリーはどこ?")
	assert.NotContains(t, got, "パターン")
}
