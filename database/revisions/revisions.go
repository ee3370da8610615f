// Package revisions records how forecast analyses change after comment
// feedback. History lives in the forecast's extra_metadata next to any other
// keys stored there.
package revisions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kazumae/fx-forecast-backend/database"
)

// RevisedByComment marks revisions triggered from a comment thread
const RevisedByComment = "User via comment"

// Metadata keys owned by this package
const (
	keyHistory       = "revision_history"
	keyLastRevisedAt = "last_revised_at"
	keyTotal         = "total_revisions"
)

// Entry is one recorded revision of a forecast analysis
type Entry struct {
	RevisionNumber int               `json:"revision_number"`
	RevisedAt      time.Time         `json:"revised_at"`
	RevisedBy      string            `json:"revised_by"`
	CommentID      *int64            `json:"comment_id,omitempty"`
	UpdateReason   string            `json:"update_reason"`
	ChangesSummary map[string]string `json:"changes_summary"`
}

// Request asks for the analysis behind a forecast comment to be revised
type Request struct {
	CommentID       int64             `json:"comment_id"`
	UpdateReason    string            `json:"update_reason"`
	RevisedSections map[string]string `json:"revised_sections"`
}

// Validate checks the request before any lookup happens
func (r Request) Validate() error {
	if r.CommentID <= 0 {
		return database.NewValidationErrorWithValue("comment_id", "must be positive", r.CommentID)
	}
	if strings.TrimSpace(r.UpdateReason) == "" {
		return database.NewValidationError("update_reason", "must not be empty")
	}
	if len(r.RevisedSections) == 0 {
		return database.NewValidationError("revised_sections", "at least one section is required")
	}
	return nil
}

// UpdateMetadata describes the revision that was just applied
type UpdateMetadata struct {
	RevisionNumber  int               `json:"revision_number"`
	CommentID       int64             `json:"comment_id"`
	UpdateReason    string            `json:"update_reason"`
	RevisedSections map[string]string `json:"revised_sections"`
}

// Result is returned after a successful revision
type Result struct {
	ForecastID       int64          `json:"forecast_id"`
	OriginalAnalysis string         `json:"original_analysis"`
	RevisedAnalysis  string         `json:"revised_analysis"`
	UpdateMetadata   UpdateMetadata `json:"update_metadata"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// History decodes the revision history from raw forecast metadata.
// Empty or null metadata has no history.
func History(raw string) ([]Entry, error) {
	fields, err := decode(raw)
	if err != nil {
		return nil, err
	}
	entries := []Entry{}
	if h, ok := fields[keyHistory]; ok && string(h) != "null" {
		if err := json.Unmarshal(h, &entries); err != nil {
			return nil, fmt.Errorf("History: %w", err)
		}
	}
	return entries, nil
}

// Append adds e to the history in raw and refreshes the revision counters.
// Keys not owned by this package are preserved.
func Append(raw string, e Entry) (string, error) {
	fields, err := decode(raw)
	if err != nil {
		return "", err
	}
	history, err := History(raw)
	if err != nil {
		return "", err
	}
	history = append(history, e)

	set := func(key string, v interface{}) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("Append: %w", err)
		}
		fields[key] = b
		return nil
	}
	if err := set(keyHistory, history); err != nil {
		return "", err
	}
	if err := set(keyLastRevisedAt, e.RevisedAt); err != nil {
		return "", err
	}
	if err := set(keyTotal, len(history)); err != nil {
		return "", err
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("Append: %w", err)
	}
	return string(out), nil
}

// NoteContent renders the system note posted under the triggering comment
func NoteContent(number int, reason string, sections map[string]string) string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ 分析が更新されました（リビジョン %d）\n\n", number)
	fmt.Fprintf(&sb, "理由: %s\n\n", reason)
	sb.WriteString("変更内容:")
	for _, name := range names {
		fmt.Fprintf(&sb, "\n• %s: %s", name, sections[name])
	}
	return sb.String()
}

func decode(raw string) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if raw == "" || raw == "null" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("malformed forecast metadata: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}
