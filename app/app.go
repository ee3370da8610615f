package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/api"
	"github.com/kazumae/fx-forecast-backend/cache"
	"github.com/kazumae/fx-forecast-backend/config"
	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/database/comments"
	"github.com/kazumae/fx-forecast-backend/database/tradereviews"
	"github.com/kazumae/fx-forecast-backend/llm"
	"github.com/kazumae/fx-forecast-backend/metrics"
	"github.com/kazumae/fx-forecast-backend/patterns"
	"github.com/kazumae/fx-forecast-backend/realtime"
)

const shutdownTimeout = 10 * time.Second

// App represents the main application
type App struct {
	config *config.Config
	logger *zap.Logger

	db           *database.Database
	redis        *cache.RedisClient
	forecastRepo *database.ForecastRepository
	tradeRepo    *tradereviews.Repository
	commentRepo  *comments.Repository

	metrics       *metrics.Metrics
	broker        *realtime.Broker
	exporter      *LearningExporter
	refresher     *LearningRefresher
	server        *api.Server
	connectedOnce sync.Once
	connectErr    error
}

// New creates a new application instance
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}
}

// Connect opens the database and Redis and builds the repositories.
// Redis is optional; without it answers are not cached and events stay local.
func (a *App) Connect() error {
	a.connectedOnce.Do(func() {
		a.connectErr = a.connect()
	})
	return a.connectErr
}

func (a *App) connect() error {
	a.logger.Info("🗄️  Connecting to database...",
		zap.String("host", a.config.DatabaseHost), zap.String("database", a.config.DatabaseName))

	db, err := database.Connect(a.config.DSN(), database.PoolConfig{
		MaxOpenConns: a.config.DatabaseMaxOpen,
		MaxIdleConns: a.config.DatabaseMaxIdle,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db
	a.logger.Info("✅ Database connected")

	a.logger.Info("🧠 Connecting to Redis...")
	a.redis = cache.NewRedisClient(a.config.RedisHost, a.config.RedisPort, a.config.RedisPassword, a.logger)
	if a.redis == nil {
		a.logger.Warn("⚠️  Redis connection failed. Answer caching and cross-instance events disabled.")
	}

	a.forecastRepo = database.NewForecastRepository(db, a.logger)
	a.tradeRepo = tradereviews.NewRepository(db.DB())
	a.commentRepo = comments.NewRepository(db.DB())
	a.exporter = NewLearningExporter(a.forecastRepo, a.tradeRepo, a.config.Analysis.LearningDir, a.logger, a.metrics)
	return nil
}

// Migrate creates or updates the database schema
func (a *App) Migrate() error {
	if err := a.Connect(); err != nil {
		return err
	}
	if err := a.forecastRepo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	a.logger.Info("✅ Database schema ready")
	return nil
}

// Analyze aggregates the pattern summary of one pair over the last days
func (a *App) Analyze(ctx context.Context, pair string, days int) (patterns.HistoricalPatternSummary, error) {
	if err := a.Connect(); err != nil {
		return patterns.HistoricalPatternSummary{}, err
	}
	since := time.Now().AddDate(0, 0, -days)

	records, err := a.forecastRepo.GetHistoricalRecords(ctx, pair, since)
	if err != nil {
		return patterns.HistoricalPatternSummary{}, err
	}
	scores, err := a.tradeRepo.GetScores(ctx, pair, since)
	if err != nil {
		a.logger.Warn("⚠️  Failed to load trade review scores", zap.Error(err))
		scores = nil
	}
	return patterns.NewAggregator().AggregateWithReviews(records, scores, pair, days), nil
}

// CompileLearning compiles and exports learning data once
func (a *App) CompileLearning(ctx context.Context, days int) (patterns.LearningData, []string, error) {
	if err := a.Connect(); err != nil {
		return patterns.LearningData{}, nil, err
	}
	return a.exporter.Compile(ctx, days)
}

// DailyReport writes today's learning report from the exported snapshots
func (a *App) DailyReport(days int) (string, error) {
	if err := a.Connect(); err != nil {
		return "", err
	}
	return a.exporter.DailyReport(days)
}

// Start runs the HTTP API and background workers until SIGINT or SIGTERM
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Migrate(); err != nil {
		return err
	}

	// Realtime broker
	a.broker = realtime.NewBroker(a.logger, a.metrics)
	go a.broker.Run(ctx)

	// Comment events published by any instance reach local clients through Redis
	if a.redis != nil {
		go a.redis.SubscribeComments(ctx, a.logger, func(ev cache.CommentEvent) {
			a.broker.Broadcast("comment."+ev.Action, ev)
		})
	}

	opts := CommentServiceOptions{
		AnswerCacheTTL:    a.config.LLM.AnswerCacheTTL,
		RequestsPerMinute: a.config.LLM.RequestsPerMinute,
		Broker:            a.broker,
		Logger:            a.logger,
		Metrics:           a.metrics,
	}
	var reviser Reviser
	if a.config.LLM.Enabled {
		client := llm.NewClient(a.config.LLM.Endpoint, a.config.LLM.APIKey, a.config.LLM.Model)
		opts.Answerer = client
		reviser = client
		a.logger.Info("✅ AI question answering ENABLED", zap.String("model", a.config.LLM.Model))
	} else {
		a.logger.Info("ℹ️  AI question answering DISABLED")
	}
	if a.redis != nil {
		opts.AnswerCache = cache.NewAnswerCache(a.redis)
		opts.Publisher = a.redis
	}
	commentService := NewCommentService(a.commentRepo, a.forecastRepo, a.tradeRepo, opts)
	revisionService := NewRevisionService(a.forecastRepo, a.commentRepo, reviser, a.broker, a.logger)

	// Periodic learning data export
	a.refresher = NewLearningRefresher(a.exporter, a.config.Analysis.LearningInterval, a.config.Analysis.LearningDays, a.logger)
	go a.refresher.Start()

	health := map[string]api.Pinger{"database": a.db}
	if a.redis != nil {
		health["redis"] = a.redis
	}

	an := a.config.Analysis
	a.server = api.NewServer(api.Deps{
		Records:   a.forecastRepo,
		Scores:    a.tradeRepo,
		Comments:  commentService,
		Revisions: revisionService,
		Learning:  a.exporter,
		Events:    a.broker,
		WS:        realtime.NewWSHandler(a.broker, a.logger),
		Health:    health,
		Matcher: patterns.NewMatcher(patterns.SimilarityWeights{
			CurrencyPair: an.WeightCurrencyPair,
			Timeframe:    an.WeightTimeframe,
			Pattern:      an.WeightPattern,
			Recency:      an.WeightRecency,
			Threshold:    an.SimilarityThreshold,
		}),
		StatisticsPairs: an.StatisticsPairs,
		WindowDays:      an.DefaultWindowDays,
		Logger:          a.logger,
		Metrics:         a.metrics,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start(a.config.ServerPort)
	}()

	return a.gracefulShutdown(cancel, serverErr)
}

// gracefulShutdown waits for a signal or a server failure and stops everything
func (a *App) gracefulShutdown(cancel context.CancelFunc, serverErr <-chan error) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	var runErr error
	select {
	case <-interrupt:
		a.logger.Info("🛑 Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("API server failed: %w", err)
			a.logger.Error("❌ API server failed", zap.Error(err))
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		defer close(shutdownComplete)

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Error stopping API server", zap.Error(err))
		}
		if a.refresher != nil {
			a.logger.Info("🔄 Stopping learning refresher...")
			a.refresher.Stop()
		}
		a.Close()
	}()

	select {
	case <-shutdownComplete:
		a.logger.Info("✅ Graceful shutdown completed")
		return runErr
	case <-shutdownCtx.Done():
		a.logger.Warn("⚠️  Shutdown timeout exceeded, forcing exit")
		return errors.Join(runErr, errors.New("shutdown timeout"))
	}
}

// Close releases database and Redis connections
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Error closing database", zap.Error(err))
		} else {
			a.logger.Info("✅ Database connection closed")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Error closing redis", zap.Error(err))
		} else {
			a.logger.Info("✅ Redis connection closed")
		}
	}
}
