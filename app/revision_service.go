package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/database/comments"
	"github.com/kazumae/fx-forecast-backend/database/revisions"
	"github.com/kazumae/fx-forecast-backend/llm"
	"github.com/kazumae/fx-forecast-backend/logging"
)

const revisionTimeout = 2 * time.Minute

// RevisionStore reads and rewrites forecast analyses
type RevisionStore interface {
	GetForecast(ctx context.Context, id int64) (*database.ForecastRequest, error)
	UpdateForecastAnalysis(ctx context.Context, id int64, response, extraMetadata string) error
}

// Reviser rewrites analyses and judges whether comments call for it
type Reviser interface {
	ReviseAnalysis(ctx context.Context, in llm.RevisionInput) (string, error)
	SuggestRevision(ctx context.Context, analysis, comment string) (*llm.RevisionSuggestion, error)
}

// RevisionService revises forecast analyses from comment feedback and keeps
// their revision history
type RevisionService struct {
	forecasts RevisionStore
	comments  CommentStore
	reviser   Reviser
	broker    Broadcaster
	logger    *zap.Logger
	Now       func() time.Time
}

// NewRevisionService creates a revision service; a nil reviser leaves only
// the history available
func NewRevisionService(forecasts RevisionStore, store CommentStore, reviser Reviser, broker Broadcaster, logger *zap.Logger) *RevisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevisionService{
		forecasts: forecasts,
		comments:  store,
		reviser:   reviser,
		broker:    broker,
		logger:    logger,
		Now:       time.Now,
	}
}

// Revise rewrites the forecast a comment belongs to, appends a history entry
// and posts a system note under the comment
func (s *RevisionService) Revise(ctx context.Context, req revisions.Request) (*revisions.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.reviser == nil {
		return nil, llm.ErrDisabled
	}
	log := logging.FromContext(ctx, s.logger)

	comment, err := s.comments.Get(ctx, comments.Forecasts, req.CommentID)
	if err != nil {
		return nil, err
	}
	forecast, err := s.forecasts.GetForecast(ctx, comment.OwnerID)
	if err != nil {
		return nil, err
	}
	history, err := revisions.History(forecast.ExtraMetadata)
	if err != nil {
		return nil, fmt.Errorf("Revise: %w", err)
	}
	number := len(history) + 1

	rctx, cancel := context.WithTimeout(ctx, revisionTimeout)
	defer cancel()
	revised, err := s.reviser.ReviseAnalysis(rctx, llm.RevisionInput{
		Analysis: forecast.Response,
		Comment:  comment.Content,
		Reason:   req.UpdateReason,
		Sections: req.RevisedSections,
	})
	if err != nil {
		return nil, fmt.Errorf("Revise: %w", err)
	}

	now := s.Now().UTC()
	commentID := req.CommentID
	meta, err := revisions.Append(forecast.ExtraMetadata, revisions.Entry{
		RevisionNumber: number,
		RevisedAt:      now,
		RevisedBy:      revisions.RevisedByComment,
		CommentID:      &commentID,
		UpdateReason:   req.UpdateReason,
		ChangesSummary: req.RevisedSections,
	})
	if err != nil {
		return nil, fmt.Errorf("Revise: %w", err)
	}
	if err := s.forecasts.UpdateForecastAnalysis(ctx, forecast.ID, revised, meta); err != nil {
		return nil, err
	}

	if err := s.postNote(ctx, forecast.ID, commentID, number, req); err != nil {
		log.Warn("⚠️  Failed to post revision note",
			zap.Int64("forecast_id", forecast.ID), zap.Int("revision", number), zap.Error(err))
	}
	if s.broker != nil {
		s.broker.Broadcast("forecast.revised", map[string]interface{}{
			"forecast_id":     forecast.ID,
			"revision_number": number,
			"comment_id":      commentID,
		})
	}
	log.Info("✏️ Forecast analysis revised",
		zap.Int64("forecast_id", forecast.ID), zap.Int("revision", number))

	return &revisions.Result{
		ForecastID:       forecast.ID,
		OriginalAnalysis: forecast.Response,
		RevisedAnalysis:  revised,
		UpdateMetadata: revisions.UpdateMetadata{
			RevisionNumber:  number,
			CommentID:       commentID,
			UpdateReason:    req.UpdateReason,
			RevisedSections: req.RevisedSections,
		},
		UpdatedAt: now,
	}, nil
}

func (s *RevisionService) postNote(ctx context.Context, forecastID, commentID int64, number int, req revisions.Request) error {
	meta, err := database.EncodeMetadata(map[string]interface{}{
		"system_action":   "analysis_updated",
		"revision_number": number,
	})
	if err != nil {
		return err
	}
	_, err = s.comments.Create(ctx, comments.Forecasts, comments.CreateInput{
		OwnerID:         forecastID,
		ParentCommentID: &commentID,
		CommentType:     database.CommentTypeNote,
		Content:         revisions.NoteContent(number, req.UpdateReason, req.RevisedSections),
		Author:          database.AuthorSystem,
		ExtraMetadata:   meta,
	})
	return err
}

// Suggest asks the LLM whether a forecast comment warrants revising the analysis
func (s *RevisionService) Suggest(ctx context.Context, commentID int64) (*llm.RevisionSuggestion, error) {
	if s.reviser == nil {
		return nil, llm.ErrDisabled
	}
	comment, err := s.comments.Get(ctx, comments.Forecasts, commentID)
	if err != nil {
		return nil, err
	}
	forecast, err := s.forecasts.GetForecast(ctx, comment.OwnerID)
	if err != nil {
		return nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, revisionTimeout)
	defer cancel()
	suggestion, err := s.reviser.SuggestRevision(rctx, forecast.Response, comment.Content)
	if err != nil {
		return nil, fmt.Errorf("Suggest: %w", err)
	}
	suggestion.CommentID = commentID
	suggestion.ForecastID = forecast.ID
	return suggestion, nil
}

// History returns the revisions applied to a forecast, oldest first
func (s *RevisionService) History(ctx context.Context, forecastID int64) ([]revisions.Entry, error) {
	forecast, err := s.forecasts.GetForecast(ctx, forecastID)
	if err != nil {
		return nil, err
	}
	history, err := revisions.History(forecast.ExtraMetadata)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return history, nil
}
