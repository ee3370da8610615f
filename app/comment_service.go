package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kazumae/fx-forecast-backend/cache"
	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/database/comments"
	models "github.com/kazumae/fx-forecast-backend/database/models_pkg"
	"github.com/kazumae/fx-forecast-backend/llm"
	"github.com/kazumae/fx-forecast-backend/logging"
	"github.com/kazumae/fx-forecast-backend/metrics"
)

const answerTimeout = 90 * time.Second

// CommentStore persists comment threads
type CommentStore interface {
	ListTree(ctx context.Context, f comments.Family, ownerID int64) ([]*comments.Node, error)
	Get(ctx context.Context, f comments.Family, id int64) (*comments.Node, error)
	Create(ctx context.Context, f comments.Family, in comments.CreateInput) (*models.CommentRow, error)
	Update(ctx context.Context, f comments.Family, id int64, content string) (*comments.Node, error)
	Delete(ctx context.Context, f comments.Family, id int64) error
}

// ForecastLookup fetches the records questions are asked about
type ForecastLookup interface {
	GetForecast(ctx context.Context, id int64) (*database.ForecastRequest, error)
	GetForecastReview(ctx context.Context, id int64) (*database.ForecastReview, error)
}

// TradeReviewLookup fetches trade reviews
type TradeReviewLookup interface {
	GetByID(ctx context.Context, id int64) (*models.TradeReview, error)
}

// Answerer produces AI answers for question contexts
type Answerer interface {
	AnswerQuestion(ctx context.Context, questionContext string) (*llm.Answer, error)
}

// EventPublisher fans comment events out to other instances
type EventPublisher interface {
	PublishComment(ctx context.Context, ev cache.CommentEvent) error
}

// Broadcaster pushes events to local realtime clients
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// CommentService manages comment threads and answers questions with the LLM
type CommentService struct {
	store     CommentStore
	forecasts ForecastLookup
	trades    TradeReviewLookup
	answerer  Answerer
	answers   *cache.AnswerCache
	limiter   *rate.Limiter
	publisher EventPublisher
	broker    Broadcaster
	logger    *zap.Logger
	metrics   *metrics.Metrics
	cacheTTL  time.Duration
}

// CommentServiceOptions holds the optional collaborators of CommentService
type CommentServiceOptions struct {
	Answerer          Answerer // nil disables AI answers
	AnswerCache       *cache.AnswerCache
	AnswerCacheTTL    time.Duration
	RequestsPerMinute int
	Publisher         EventPublisher
	Broker            Broadcaster
	Logger            *zap.Logger
	Metrics           *metrics.Metrics
}

// NewCommentService creates a comment service
func NewCommentService(store CommentStore, forecasts ForecastLookup, trades TradeReviewLookup, opts CommentServiceOptions) *CommentService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	ttl := opts.AnswerCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &CommentService{
		store:     store,
		forecasts: forecasts,
		trades:    trades,
		answerer:  opts.Answerer,
		answers:   opts.AnswerCache,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		publisher: opts.Publisher,
		broker:    opts.Broker,
		logger:    logger,
		metrics:   opts.Metrics,
		cacheTTL:  ttl,
	}
}

// List returns the comment tree of an owner
func (s *CommentService) List(ctx context.Context, f comments.Family, ownerID int64) ([]*comments.Node, error) {
	return s.store.ListTree(ctx, f, ownerID)
}

// Create stores a comment. A top-level question also gets an AI answer when
// the LLM is enabled; answer failures leave the question without one.
func (s *CommentService) Create(ctx context.Context, f comments.Family, in comments.CreateInput) (*comments.Node, error) {
	log := logging.FromContext(ctx, s.logger)

	in.IsAIResponse = false
	if in.Author == "" || in.Author == database.AuthorAIAssistant {
		in.Author = database.AuthorUser
	}

	row, err := s.store.Create(ctx, f, in)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "created", f, row)

	if row.CommentType == database.CommentTypeQuestion && row.ParentCommentID == nil && s.answerer != nil {
		if err := s.answer(ctx, f, row, in.ExtraMetadata); err != nil {
			log.Warn("⚠️  Failed to generate AI answer",
				zap.String("family", f.Name), zap.Int64("comment_id", row.ID), zap.Error(err))
		}
	}

	return s.store.Get(ctx, f, row.ID)
}

// Update edits a user comment
func (s *CommentService) Update(ctx context.Context, f comments.Family, id int64, content string) (*comments.Node, error) {
	node, err := s.store.Update(ctx, f, id, content)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "updated", f, &node.CommentRow)
	return node, nil
}

// Delete removes a user comment and its replies
func (s *CommentService) Delete(ctx context.Context, f comments.Family, id int64) error {
	node, err := s.store.Get(ctx, f, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, f, id); err != nil {
		return err
	}
	s.notify(ctx, "deleted", f, &node.CommentRow)
	return nil
}

func (s *CommentService) answer(ctx context.Context, f comments.Family, question *models.CommentRow, extraMetadata string) error {
	qc, err := s.questionContext(ctx, f, question.OwnerID)
	if err != nil {
		return err
	}
	qc.Question = question.Content
	qc.ExtraContext = extraContext(extraMetadata)
	prompt := llm.BuildQuestionContext(qc)
	hash := cache.GenerateContextHash(prompt)

	ans, cached := s.answers.GetAnswer(ctx, hash)
	if cached {
		s.count("cached")
		if s.metrics != nil {
			s.metrics.AnswerCacheHits.Inc()
		}
	} else {
		if !s.limiter.Allow() {
			s.count("limited")
			return fmt.Errorf("LLM rate limit exceeded")
		}
		if !s.answers.TryCooldown(ctx, hash, time.Minute) {
			s.count("limited")
			return fmt.Errorf("identical question is already being answered")
		}

		actx, cancel := context.WithTimeout(ctx, answerTimeout)
		defer cancel()
		ans, err = s.answerer.AnswerQuestion(actx, prompt)
		if err != nil {
			s.count("failed")
			return err
		}
		s.count("generated")
		if err := s.answers.SetAnswer(ctx, hash, ans, s.cacheTTL); err != nil {
			logging.FromContext(ctx, s.logger).Debug("Answer not cached", zap.Error(err))
		}
	}

	meta, err := database.EncodeMetadata(map[string]interface{}{
		"confidence": ans.Confidence,
		"reasoning":  ans.Reasoning,
	})
	if err != nil {
		return err
	}

	parentID := question.ID
	row, err := s.store.Create(ctx, f, comments.CreateInput{
		OwnerID:         question.OwnerID,
		ParentCommentID: &parentID,
		CommentType:     database.CommentTypeAnswer,
		Content:         ans.Answer,
		Author:          database.AuthorAIAssistant,
		IsAIResponse:    true,
		ExtraMetadata:   meta,
	})
	if err != nil {
		return fmt.Errorf("failed to store answer: %w", err)
	}
	s.notify(ctx, "created", f, row)
	return nil
}

// questionContext loads the record a question is attached to
func (s *CommentService) questionContext(ctx context.Context, f comments.Family, ownerID int64) (llm.QuestionContext, error) {
	switch f.Name {
	case comments.Forecasts.Name:
		fc, err := s.forecasts.GetForecast(ctx, ownerID)
		if err != nil {
			return llm.QuestionContext{}, err
		}
		return llm.QuestionContext{
			Kind:         "予測",
			CurrencyPair: fc.CurrencyPair,
			Timeframes:   []string(fc.Timeframes),
			AnalysisText: fc.Response,
		}, nil

	case comments.Reviews.Name:
		rv, err := s.forecasts.GetForecastReview(ctx, ownerID)
		if err != nil {
			return llm.QuestionContext{}, err
		}
		qc := llm.QuestionContext{
			Kind:         "レビュー",
			Timeframes:   []string(rv.ReviewTimeframes),
			AnalysisText: rv.ReviewResponse,
		}
		if fc, err := s.forecasts.GetForecast(ctx, rv.ForecastID); err == nil {
			qc.CurrencyPair = fc.CurrencyPair
			qc.AnalysisText = "【元の予測】\n" + fc.Response + "\n\n【レビュー】\n" + rv.ReviewResponse
		}
		return qc, nil

	case comments.TradeReviews.Name:
		tr, err := s.trades.GetByID(ctx, ownerID)
		if err != nil {
			return llm.QuestionContext{}, err
		}
		parts := []string{tr.EntryAnalysis}
		for _, p := range []string{tr.TechnicalAnalysis, tr.RiskManagement, tr.MarketContext} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return llm.QuestionContext{
			Kind:         "トレードレビュー",
			CurrencyPair: tr.CurrencyPair,
			Timeframes:   []string{tr.Timeframe},
			AnalysisText: fmt.Sprintf("スコア: %.1f\n%s", tr.OverallScore, strings.Join(parts, "\n\n")),
		}, nil
	}
	return llm.QuestionContext{}, fmt.Errorf("unknown comment family %q", f.Name)
}

// notify publishes through Redis when available, otherwise straight to the local broker
func (s *CommentService) notify(ctx context.Context, action string, f comments.Family, row *models.CommentRow) {
	ev := cache.CommentEvent{
		Action:    action,
		Family:    f.Name,
		OwnerID:   row.OwnerID,
		CommentID: row.ID,
		Type:      row.CommentType,
		IsAI:      row.IsAIResponse,
		Timestamp: time.Now().UTC(),
	}

	if s.publisher != nil {
		if err := s.publisher.PublishComment(ctx, ev); err == nil {
			return
		}
	}
	if s.broker != nil {
		s.broker.Broadcast("comment."+action, ev)
	}
}

func (s *CommentService) count(result string) {
	if s.metrics != nil {
		s.metrics.AnswersTotal.WithLabelValues(result).Inc()
	}
}

// extraContext reads the optional "context" field of comment metadata
func extraContext(raw string) string {
	if raw == "" {
		return ""
	}
	var meta struct {
		Context string `json:"context"`
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return ""
	}
	return meta.Context
}
