package tradereviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	models "github.com/kazumae/fx-forecast-backend/database/models_pkg"
	"github.com/kazumae/fx-forecast-backend/patterns"
)

// ErrNotFound is returned when a trade review does not exist
var ErrNotFound = errors.New("trade review not found")

// Repository handles database operations for trade reviews
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new trade reviews repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID returns a single trade review
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.TradeReview, error) {
	var review models.TradeReview
	err := r.db.WithContext(ctx).First(&review, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &review, nil
}

// GetScores returns scored reviews for a currency pair created at or after since.
// An empty pair returns reviews for every pair.
func (r *Repository) GetScores(ctx context.Context, currencyPair string, since time.Time) ([]patterns.ReviewScore, error) {
	var reviews []models.TradeReview
	query := r.db.WithContext(ctx).
		Select("currency_pair", "entry_analysis", "overall_score", "created_at").
		Where("created_at >= ?", since)
	if currencyPair != "" {
		query = query.Where("currency_pair = ?", currencyPair)
	}
	if err := query.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("GetScores: %w", err)
	}

	return toScores(reviews), nil
}

// GetInsights returns execution insights for reviews created at or after since, newest first
func (r *Repository) GetInsights(ctx context.Context, since time.Time, limit int) ([]patterns.TradeInsight, error) {
	var reviews []models.TradeReview
	query := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("GetInsights: %w", err)
	}

	return toInsights(reviews), nil
}

func toScores(reviews []models.TradeReview) []patterns.ReviewScore {
	scores := make([]patterns.ReviewScore, 0, len(reviews))
	for _, tr := range reviews {
		scores = append(scores, patterns.ReviewScore{
			CurrencyPair:  tr.CurrencyPair,
			EntryAnalysis: tr.EntryAnalysis,
			OverallScore:  tr.OverallScore,
			CreatedAt:     tr.CreatedAt,
		})
	}
	return scores
}

func toInsights(reviews []models.TradeReview) []patterns.TradeInsight {
	insights := make([]patterns.TradeInsight, 0, len(reviews))
	for _, tr := range reviews {
		insights = append(insights, patterns.TradeInsight{
			Score:             tr.OverallScore,
			GoodPoints:        []string(tr.GoodPoints),
			ImprovementPoints: []string(tr.ImprovementPoints),
			Timeframe:         tr.Timeframe,
			TradeDirection:    tr.TradeDirection,
			CreatedAt:         tr.CreatedAt,
		})
	}
	return insights
}
