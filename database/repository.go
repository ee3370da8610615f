package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kazumae/fx-forecast-backend/patterns"
)

// ForecastRepository is the Record Store: it reads forecasts and their
// reviews and hands immutable snapshots to the pattern engine.
type ForecastRepository struct {
	db     *Database
	logger *zap.Logger
}

// NewForecastRepository creates a new forecast repository
func NewForecastRepository(db *Database, logger *zap.Logger) *ForecastRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastRepository{db: db, logger: logger}
}

// InitSchema performs auto-migration for every table the service owns
func (r *ForecastRepository) InitSchema() error {
	err := r.db.db.AutoMigrate(
		&ForecastRequest{},
		&ForecastReview{},
		&TradeReview{},
		&ForecastComment{},
		&ForecastReviewComment{},
		&TradeReviewComment{},
	)
	if err != nil {
		return WrapDBError("InitSchema", err)
	}
	return nil
}

// GetHistoricalRecords returns records for currencyPair created at or after since,
// newest first.
func (r *ForecastRepository) GetHistoricalRecords(ctx context.Context, currencyPair string, since time.Time) ([]patterns.HistoricalRecord, error) {
	query := r.db.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("currency_pair = ?", currencyPair).
		Order("created_at DESC").
		Limit(MaxHistoricalRecords)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var forecasts []ForecastRequest
	if err := query.Find(&forecasts).Error; err != nil {
		return nil, WrapDBError("GetHistoricalRecords", err)
	}
	r.warnIfCapped("GetHistoricalRecords", len(forecasts))
	return toHistoricalRecords(forecasts), nil
}

// GetAllHistoricalRecords returns records across all currency pairs created at
// or after since. A zero since means no lower bound.
func (r *ForecastRepository) GetAllHistoricalRecords(ctx context.Context, since time.Time) ([]patterns.HistoricalRecord, error) {
	query := r.db.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Order("created_at DESC").
		Limit(MaxHistoricalRecords)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var forecasts []ForecastRequest
	if err := query.Find(&forecasts).Error; err != nil {
		return nil, WrapDBError("GetAllHistoricalRecords", err)
	}
	r.warnIfCapped("GetAllHistoricalRecords", len(forecasts))
	return toHistoricalRecords(forecasts), nil
}

// GetRecentReviewMetadata decodes the metadata of the latest reviews that have any.
// Rows with malformed JSON are skipped.
func (r *ForecastRepository) GetRecentReviewMetadata(ctx context.Context, limit int) ([]patterns.ReviewMetadata, error) {
	if limit <= 0 {
		limit = DefaultMetadataLimit
	}

	var reviews []ForecastReview
	err := r.db.db.WithContext(ctx).
		Where("review_metadata IS NOT NULL AND review_metadata::text NOT IN ('', 'null')").
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, WrapDBError("GetRecentReviewMetadata", err)
	}

	out := make([]patterns.ReviewMetadata, 0, len(reviews))
	for _, rv := range reviews {
		if md, ok := decodeReviewMetadata(rv.ReviewMetadata); ok {
			out = append(out, md)
		}
	}
	return out, nil
}

// GetForecast returns a forecast by ID
func (r *ForecastRepository) GetForecast(ctx context.Context, id int64) (*ForecastRequest, error) {
	var forecast ForecastRequest
	err := r.db.db.WithContext(ctx).First(&forecast, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundErrorWithID("forecast", id)
	}
	if err != nil {
		return nil, WrapDBError("GetForecast", err)
	}
	return &forecast, nil
}

// UpdateForecastAnalysis replaces the analysis text and metadata of a forecast
func (r *ForecastRepository) UpdateForecastAnalysis(ctx context.Context, id int64, response, extraMetadata string) error {
	updates := map[string]interface{}{
		"response":   response,
		"updated_at": time.Now().UTC(),
	}
	if extraMetadata != "" {
		updates["extra_metadata"] = extraMetadata
	}

	res := r.db.db.WithContext(ctx).Model(&ForecastRequest{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return WrapDBError("UpdateForecastAnalysis", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundErrorWithID("forecast", id)
	}
	return nil
}

// GetForecastReview returns a forecast review by ID
func (r *ForecastRepository) GetForecastReview(ctx context.Context, id int64) (*ForecastReview, error) {
	var review ForecastReview
	err := r.db.db.WithContext(ctx).First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFoundErrorWithID("review", id)
	}
	if err != nil {
		return nil, WrapDBError("GetForecastReview", err)
	}
	return &review, nil
}

// GetLearningForecasts returns reviewed forecasts created at or after since
func (r *ForecastRepository) GetLearningForecasts(ctx context.Context, since time.Time) ([]patterns.LearningForecast, error) {
	var forecasts []ForecastRequest
	err := r.db.db.WithContext(ctx).
		Preload("Reviews").
		Where("created_at >= ?", since).
		Where("EXISTS (SELECT 1 FROM forecast_reviews fr WHERE fr.forecast_id = forecast_requests.id)").
		Order("created_at ASC").
		Find(&forecasts).Error
	if err != nil {
		return nil, WrapDBError("GetLearningForecasts", err)
	}

	out := make([]patterns.LearningForecast, 0, len(forecasts))
	for _, f := range forecasts {
		lf := patterns.LearningForecast{
			ID:           f.ID,
			CurrencyPair: f.CurrencyPair,
			Response:     f.Response,
			CreatedAt:    f.CreatedAt,
		}
		for _, rv := range f.Reviews {
			review := patterns.LearningReview{
				Outcome: patterns.ExtractOutcome(rv.ReviewResponse, rv.ActualOutcome),
			}
			if md, ok := decodeReviewMetadata(rv.ReviewMetadata); ok {
				review.Metadata = &md
			}
			lf.Reviews = append(lf.Reviews, review)
		}
		out = append(out, lf)
	}
	return out, nil
}

// CountUserQuestions counts non-AI forecast questions created at or after since
func (r *ForecastRepository) CountUserQuestions(ctx context.Context, since time.Time) (int, error) {
	var count int64
	err := r.db.db.WithContext(ctx).Model(&ForecastComment{}).
		Where("comment_type = ? AND is_ai_response = ? AND created_at >= ?", CommentTypeQuestion, false, since).
		Count(&count).Error
	if err != nil {
		return 0, WrapDBError("CountUserQuestions", err)
	}
	return int(count), nil
}

// warnIfCapped reports whether a history query hit MaxHistoricalRecords.
// Only the newest rows are returned in that case, so older history is ignored.
func (r *ForecastRepository) warnIfCapped(op string, n int) bool {
	if n < MaxHistoricalRecords {
		return false
	}
	r.logger.Warn("⚠️ History query truncated at row cap, oldest records ignored",
		zap.String("operation", op),
		zap.Int("limit", MaxHistoricalRecords))
	return true
}

// toHistoricalRecords flattens forecasts into records using the latest review.
// Reviews are expected newest first.
func toHistoricalRecords(forecasts []ForecastRequest) []patterns.HistoricalRecord {
	records := make([]patterns.HistoricalRecord, 0, len(forecasts))
	for _, f := range forecasts {
		rec := patterns.HistoricalRecord{
			ID:           f.ID,
			CurrencyPair: f.CurrencyPair,
			Timeframes:   []string(f.Timeframes),
			AnalysisText: f.Response,
			CreatedAt:    f.CreatedAt,
		}
		if len(f.Reviews) > 0 {
			latest := f.Reviews[0]
			rec.Outcome = patterns.ExtractOutcome(latest.ReviewResponse, latest.ActualOutcome)
			rec.AccuracyNotes = latest.AccuracyNotes
		}
		records = append(records, rec)
	}
	return records
}

func decodeReviewMetadata(raw string) (patterns.ReviewMetadata, bool) {
	var md patterns.ReviewMetadata
	if raw == "" || raw == "null" {
		return md, false
	}
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return md, false
	}
	return md, true
}

// EncodeMetadata marshals v for a jsonb column; nil becomes an empty string
func EncodeMetadata(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("EncodeMetadata: %w", err)
	}
	return string(b), nil
}
