package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/database/comments"
	"github.com/kazumae/fx-forecast-backend/database/revisions"
	"github.com/kazumae/fx-forecast-backend/llm"
	"github.com/kazumae/fx-forecast-backend/metrics"
	"github.com/kazumae/fx-forecast-backend/patterns"
)

// RecordStore reads historical forecasts for the pattern engine
type RecordStore interface {
	GetHistoricalRecords(ctx context.Context, currencyPair string, since time.Time) ([]patterns.HistoricalRecord, error)
	GetAllHistoricalRecords(ctx context.Context, since time.Time) ([]patterns.HistoricalRecord, error)
	GetRecentReviewMetadata(ctx context.Context, limit int) ([]patterns.ReviewMetadata, error)
}

// ScoreStore reads scored trade reviews; an empty pair means all pairs
type ScoreStore interface {
	GetScores(ctx context.Context, currencyPair string, since time.Time) ([]patterns.ReviewScore, error)
}

// CommentService manages comment threads
type CommentService interface {
	List(ctx context.Context, f comments.Family, ownerID int64) ([]*comments.Node, error)
	Create(ctx context.Context, f comments.Family, in comments.CreateInput) (*comments.Node, error)
	Update(ctx context.Context, f comments.Family, id int64, content string) (*comments.Node, error)
	Delete(ctx context.Context, f comments.Family, id int64) error
}

// RevisionService revises forecast analyses from comment feedback
type RevisionService interface {
	Revise(ctx context.Context, req revisions.Request) (*revisions.Result, error)
	Suggest(ctx context.Context, commentID int64) (*llm.RevisionSuggestion, error)
	History(ctx context.Context, forecastID int64) ([]revisions.Entry, error)
}

// LearningService compiles and summarises learning data
type LearningService interface {
	Compile(ctx context.Context, days int) (patterns.LearningData, []string, error)
	Summary(days int) (string, int, error)
	DailyReport(days int) (string, error)
}

// Pinger reports the health of a dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of Server. Nil optional fields disable their routes.
type Deps struct {
	Records   RecordStore
	Scores    ScoreStore
	Comments  CommentService
	Revisions RevisionService
	Learning  LearningService
	Events    http.Handler // SSE
	WS        http.Handler
	Health    map[string]Pinger

	Aggregator      *patterns.Aggregator
	Matcher         *patterns.Matcher
	StatisticsPairs []string
	WindowDays      int

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server handles HTTP API requests
type Server struct {
	Deps
	httpServer *http.Server
}

// NewServer creates a new API server instance
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Aggregator == nil {
		deps.Aggregator = patterns.NewAggregator()
	}
	if deps.Matcher == nil {
		deps.Matcher = patterns.NewMatcher(patterns.DefaultSimilarityWeights())
	}
	if deps.WindowDays <= 0 {
		deps.WindowDays = patterns.DefaultWindowDays
	}
	if len(deps.StatisticsPairs) == 0 {
		deps.StatisticsPairs = []string{"XAUUSD", "USDJPY", "EURUSD", "GBPUSD"}
	}
	return &Server{Deps: deps}
}

// Handler builds the routed and middleware-wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Pattern analysis
	mux.HandleFunc("GET /api/v1/patterns/analysis/{pair}", s.handlePatternAnalysis)
	mux.HandleFunc("POST /api/v1/patterns/similar", s.handleSimilarPatterns)
	mux.HandleFunc("GET /api/v1/patterns/context/{pair}", s.handlePatternContext)
	mux.HandleFunc("GET /api/v1/patterns/statistics", s.handlePatternStatistics)
	mux.HandleFunc("POST /api/v1/patterns/extract", s.handleExtractPattern)

	// Comments
	if s.Comments != nil {
		for _, f := range []comments.Family{comments.Forecasts, comments.Reviews, comments.TradeReviews} {
			base := "/api/v1/" + f.Name
			mux.HandleFunc("GET "+base+"/{id}/comments", s.handleListComments(f))
			mux.HandleFunc("POST "+base+"/comments", s.handleCreateComment(f))
			mux.HandleFunc("PUT "+base+"/comments/{id}", s.handleUpdateComment(f))
			mux.HandleFunc("DELETE "+base+"/comments/{id}", s.handleDeleteComment(f))
		}
	}

	// Analysis revisions
	if s.Revisions != nil {
		mux.HandleFunc("POST /api/v1/forecasts/update-analysis", s.handleReviseAnalysis)
		mux.HandleFunc("GET /api/v1/forecasts/comments/{id}/revision-suggestion", s.handleSuggestRevision)
		mux.HandleFunc("GET /api/v1/forecasts/{id}/revision-history", s.handleRevisionHistory)
	}

	// Learning data
	if s.Learning != nil {
		mux.HandleFunc("POST /api/v1/learning/compile", s.handleCompileLearning)
		mux.HandleFunc("GET /api/v1/learning/summary", s.handleLearningSummary)
		mux.HandleFunc("POST /api/v1/learning/daily-report", s.handleDailyReport)
	}

	// Technical analysis
	mux.HandleFunc("POST /api/v1/technical/volatility", s.handleVolatility)
	mux.HandleFunc("POST /api/v1/technical/trend", s.handleTrend)
	mux.HandleFunc("POST /api/v1/technical/multi-timeframe", s.handleMultiTimeframe)

	// Realtime
	if s.Events != nil {
		mux.Handle("GET /api/v1/events", s.Events)
	}
	if s.WS != nil {
		mux.Handle("GET /api/v1/ws", s.WS)
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.recoverMiddleware(s.corsMiddleware(s.requestIDMiddleware(s.loggingMiddleware(mux))))
}

// Start listens on port and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Logger.Info("🚀 API Server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handlers are distributed across multiple files:
// - handlers_patterns.go: statistics, similarity, context and extraction
// - handlers_comments.go: comment threads and AI answers
// - handlers_revisions.go: analysis revisions driven by comments
// - handlers_learning.go: learning data compile, summary and daily report
// - handlers_technical.go: volatility, trend and multi-timeframe analysis
// - handlers_health.go: health check
