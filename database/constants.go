package database

import "time"

// Comment types
const (
	CommentTypeQuestion = "question"
	CommentTypeAnswer   = "answer"
	CommentTypeNote     = "note"
	CommentTypeFeedback = "feedback"
)

// Comment authors
const (
	AuthorUser        = "User"
	AuthorAIAssistant = "AI Assistant"
	AuthorSystem      = "System"
)

// Lookback and limit defaults for Record Store queries
const (
	DefaultLookbackDays    = 30
	MinLookbackDays        = 7
	MaxLookbackDays        = 90
	DefaultMetadataLimit   = 10
	MaxHistoricalRecords   = 5000
	DefaultQueryTimeout    = 10 * time.Second
	LearningQuestionWindow = 30 * 24 * time.Hour
)

// ValidCommentType reports whether t is a known comment type
func ValidCommentType(t string) bool {
	switch t {
	case CommentTypeQuestion, CommentTypeAnswer, CommentTypeNote, CommentTypeFeedback:
		return true
	}
	return false
}
