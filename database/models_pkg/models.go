package models

import (
	"time"

	"github.com/lib/pq"
)

// ForecastRequest is one chart analysis produced by the LLM for a currency pair.
//
// Key Fields:
//   - CurrencyPair: short code such as XAUUSD (indexed)
//   - Response: analysis text; pattern tags are extracted from it on demand
//   - Timeframes: chart timeframes the analysis used, stored as text[]
//   - ExtraMetadata: free-form jsonb (revision history, comment insights)
type ForecastRequest struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CurrencyPair  string         `gorm:"size:10;index;not null" json:"currency_pair"`
	Prompt        string         `gorm:"type:text;not null" json:"prompt"`
	Response      string         `gorm:"type:text" json:"response"`
	Timeframes    pq.StringArray `gorm:"type:text[]" json:"timeframes"`
	ExtraMetadata string         `gorm:"type:jsonb" json:"extra_metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"index;autoCreateTime" json:"created_at"`
	UpdatedAt     *time.Time     `gorm:"autoUpdateTime" json:"updated_at,omitempty"`

	Reviews []ForecastReview `gorm:"foreignKey:ForecastID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

// TableName specifies the table name for ForecastRequest
func (ForecastRequest) TableName() string {
	return "forecast_requests"
}

// ForecastReview records what actually happened after a forecast.
// ActualOutcome is one of long_success, long_failure, short_success,
// short_failure, neutral; empty means the outcome is read from ReviewResponse.
type ForecastReview struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ForecastID       int64          `gorm:"index;not null" json:"forecast_id"`
	ReviewTimeframes pq.StringArray `gorm:"type:text[]" json:"review_timeframes"`
	ReviewPrompt     string         `gorm:"type:text;not null" json:"review_prompt"`
	ReviewResponse   string         `gorm:"type:text;not null" json:"review_response"`
	ActualOutcome    string         `gorm:"size:50" json:"actual_outcome,omitempty"`
	AccuracyNotes    string         `gorm:"type:text" json:"accuracy_notes,omitempty"`
	ReviewMetadata   string         `gorm:"type:jsonb" json:"review_metadata,omitempty"`
	CreatedAt        time.Time      `gorm:"index;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for ForecastReview
func (ForecastReview) TableName() string {
	return "forecast_reviews"
}

// TradeReview is an AI review of a trade the user actually executed.
type TradeReview struct {
	ID                int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CurrencyPair      string         `gorm:"size:10;index;not null" json:"currency_pair"`
	Timeframe         string         `gorm:"size:10;not null" json:"timeframe"`
	TradeDirection    string         `gorm:"size:10" json:"trade_direction,omitempty"` // long, short
	OverallScore      float64        `gorm:"not null" json:"overall_score"`
	EntryAnalysis     string         `gorm:"type:text;not null" json:"entry_analysis"`
	TechnicalAnalysis string         `gorm:"type:text" json:"technical_analysis,omitempty"`
	RiskManagement    string         `gorm:"type:text" json:"risk_management,omitempty"`
	MarketContext     string         `gorm:"type:text" json:"market_context,omitempty"`
	GoodPoints        pq.StringArray `gorm:"type:text[]" json:"good_points"`
	ImprovementPoints pq.StringArray `gorm:"type:text[]" json:"improvement_points"`
	Recommendations   pq.StringArray `gorm:"type:text[]" json:"recommendations"`
	ConfidenceLevel   *float64       `json:"confidence_level,omitempty"`
	CreatedAt         time.Time      `gorm:"index;autoCreateTime" json:"created_at"`
	UpdatedAt         *time.Time     `gorm:"autoUpdateTime" json:"updated_at,omitempty"`
}

// TableName specifies the table name for TradeReview
func (TradeReview) TableName() string {
	return "trade_reviews"
}

// CommentFields is shared by the three comment tables.
// CommentType is question, answer, note or feedback.
type CommentFields struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentCommentID *int64     `gorm:"index" json:"parent_comment_id,omitempty"`
	CommentType     string     `gorm:"size:20;not null" json:"comment_type"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	Author          string     `gorm:"size:100;default:User" json:"author"`
	IsAIResponse    bool       `gorm:"default:false" json:"is_ai_response"`
	ExtraMetadata   string     `gorm:"type:jsonb" json:"extra_metadata,omitempty"`
	CreatedAt       time.Time  `gorm:"index;autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime" json:"updated_at,omitempty"`
}

// ForecastComment is a comment thread entry on a forecast
type ForecastComment struct {
	CommentFields
	ForecastID int64 `gorm:"index;not null" json:"forecast_id"`
}

// TableName specifies the table name for ForecastComment
func (ForecastComment) TableName() string {
	return "forecast_comments"
}

// ForecastReviewComment is a comment thread entry on a forecast review
type ForecastReviewComment struct {
	CommentFields
	ReviewID int64 `gorm:"index;not null" json:"review_id"`
}

// TableName specifies the table name for ForecastReviewComment
func (ForecastReviewComment) TableName() string {
	return "forecast_review_comments"
}

// TradeReviewComment is a comment thread entry on a trade review
type TradeReviewComment struct {
	CommentFields
	ReviewID int64 `gorm:"index;not null" json:"review_id"`
}

// TableName specifies the table name for TradeReviewComment
func (TradeReviewComment) TableName() string {
	return "trade_review_comments"
}

// CommentRow is the family-neutral projection of a comment row.
// OwnerID holds forecast_id or review_id depending on the table.
type CommentRow struct {
	CommentFields
	OwnerID int64 `json:"owner_id"`
}
