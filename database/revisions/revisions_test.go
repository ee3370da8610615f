package revisions

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazumae/fx-forecast-backend/database"
)

var revisedAt = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

func entry(n int) Entry {
	id := int64(40 + n)
	return Entry{
		RevisionNumber: n,
		RevisedAt:      revisedAt,
		RevisedBy:      RevisedByComment,
		CommentID:      &id,
		UpdateReason:   "上位足を考慮",
		ChangesSummary: map[string]string{"direction": "short"},
	}
}

func TestRequestValidate(t *testing.T) {
	sections := map[string]string{"entry_point": "押し目"}

	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{CommentID: 1, UpdateReason: "reason", RevisedSections: sections}, false},
		{"missing comment", Request{UpdateReason: "reason", RevisedSections: sections}, true},
		{"blank reason", Request{CommentID: 1, UpdateReason: "  ", RevisedSections: sections}, true},
		{"no sections", Request{CommentID: 1, UpdateReason: "reason"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, database.IsValidation(err), "got %v", err)
		})
	}
}

func TestHistory(t *testing.T) {
	stored, err := Append("", entry(1))
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"json null", "null", 0, false},
		{"no history key", `{"comment_insights":[]}`, 0, false},
		{"null history", `{"revision_history":null}`, 0, false},
		{"one revision", stored, 1, false},
		{"malformed", `{"revision_history":`, 0, true},
		{"wrong history shape", `{"revision_history":"x"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := History(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h)
			assert.Len(t, h, tt.wantLen)
		})
	}
}

func TestAppendPreservesOtherKeys(t *testing.T) {
	raw := `{"comment_insights":[{"q":"why"}],"source":"chart"}`

	first, err := Append(raw, entry(1))
	require.NoError(t, err)
	second, err := Append(first, entry(2))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(second), &fields))
	assert.JSONEq(t, `[{"q":"why"}]`, string(fields["comment_insights"]))
	assert.JSONEq(t, `"chart"`, string(fields["source"]))
	assert.JSONEq(t, `2`, string(fields["total_revisions"]))
	assert.JSONEq(t, `"2025-06-02T08:30:00Z"`, string(fields["last_revised_at"]))

	h, err := History(second)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, 1, h[0].RevisionNumber)
	assert.Equal(t, 2, h[1].RevisionNumber)
	require.NotNil(t, h[1].CommentID)
	assert.Equal(t, int64(42), *h[1].CommentID)
	assert.Equal(t, revisedAt, h[1].RevisedAt)
	assert.Equal(t, map[string]string{"direction": "short"}, h[1].ChangesSummary)
}

func TestAppendRejectsMalformedMetadata(t *testing.T) {
	_, err := Append(`not json`, entry(1))
	assert.Error(t, err)
}

func TestNoteContent(t *testing.T) {
	out := NoteContent(3, "上位足を考慮", map[string]string{"entry_point": "押し目待ち", "direction": "ショート"})
	assert.Equal(t, "✅ 分析が更新されました（リビジョン 3）\n\n理由: 上位足を考慮\n\n変更内容:\n• direction: ショート\n• entry_point: 押し目待ち", out)
}
