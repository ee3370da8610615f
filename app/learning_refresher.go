package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LearningRefresher periodically recompiles learning data
type LearningRefresher struct {
	exporter *LearningExporter
	interval time.Duration
	days     int
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewLearningRefresher creates a new learning refresher
func NewLearningRefresher(exporter *LearningExporter, interval time.Duration, days int, logger *zap.Logger) *LearningRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &LearningRefresher{
		exporter: exporter,
		interval: interval,
		days:     days,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the refresh loop; it blocks until Stop is called
func (lr *LearningRefresher) Start() {
	lr.logger.Info("🔄 Learning refresher started", zap.Duration("interval", lr.interval))

	ticker := time.NewTicker(lr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lr.refresh()
		case <-lr.done:
			lr.logger.Info("🔄 Learning refresher stopped")
			return
		}
	}
}

// Stop stops the refresh loop; repeated calls are no-ops
func (lr *LearningRefresher) Stop() {
	lr.stopOnce.Do(func() { close(lr.done) })
}

func (lr *LearningRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, _, err := lr.exporter.Compile(ctx, lr.days); err != nil {
		lr.logger.Warn("⚠️ Failed to compile learning data", zap.Error(err))
	}
}
