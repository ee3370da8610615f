package comments

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kazumae/fx-forecast-backend/database"
	models "github.com/kazumae/fx-forecast-backend/database/models_pkg"
)

// CreateInput holds the fields of a new comment
type CreateInput struct {
	OwnerID         int64
	ParentCommentID *int64
	CommentType     string
	Content         string
	Author          string
	IsAIResponse    bool
	ExtraMetadata   string
}

// Repository handles database operations for comment threads
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new comments repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListTree returns every thread attached to an owner
func (r *Repository) ListTree(ctx context.Context, f Family, ownerID int64) ([]*Node, error) {
	if err := r.ensureOwner(ctx, f, ownerID); err != nil {
		return nil, err
	}
	rows, err := r.ownerRows(ctx, f, ownerID)
	if err != nil {
		return nil, err
	}
	return BuildTree(rows, f), nil
}

// Get returns one comment with its answer and replies
func (r *Repository) Get(ctx context.Context, f Family, id int64) (*Node, error) {
	row, err := r.row(ctx, f, id)
	if err != nil {
		return nil, err
	}
	rows, err := r.ownerRows(ctx, f, row.OwnerID)
	if err != nil {
		return nil, err
	}
	node, ok := BuildSubtree(rows, id)
	if !ok {
		return nil, database.NewNotFoundErrorWithID("comment", id)
	}
	return node, nil
}

// Create validates and inserts a comment.
// A parent must belong to the same owner.
func (r *Repository) Create(ctx context.Context, f Family, in CreateInput) (*models.CommentRow, error) {
	if !database.ValidCommentType(in.CommentType) {
		return nil, database.NewValidationErrorWithValue("comment_type", "must be question, answer, note or feedback", in.CommentType)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, database.NewValidationError("content", "must not be empty")
	}
	if in.ParentCommentID == nil && !f.AllowsTopLevel(in.CommentType) {
		return nil, database.NewValidationErrorWithValue("comment_type", "not allowed without a parent comment", in.CommentType)
	}
	if err := r.ensureOwner(ctx, f, in.OwnerID); err != nil {
		return nil, err
	}
	if in.ParentCommentID != nil {
		parent, err := r.row(ctx, f, *in.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.OwnerID != in.OwnerID {
			return nil, database.NewNotFoundErrorWithID("parent comment", *in.ParentCommentID)
		}
	}
	if in.Author == "" {
		in.Author = database.AuthorUser
	}

	fields := models.CommentFields{
		ParentCommentID: in.ParentCommentID,
		CommentType:     in.CommentType,
		Content:         in.Content,
		Author:          in.Author,
		IsAIResponse:    in.IsAIResponse,
		ExtraMetadata:   in.ExtraMetadata,
	}

	var model interface{}
	switch f.Name {
	case Forecasts.Name:
		model = &models.ForecastComment{CommentFields: fields, ForecastID: in.OwnerID}
	case Reviews.Name:
		model = &models.ForecastReviewComment{CommentFields: fields, ReviewID: in.OwnerID}
	case TradeReviews.Name:
		model = &models.TradeReviewComment{CommentFields: fields, ReviewID: in.OwnerID}
	default:
		return nil, fmt.Errorf("Create: unknown comment family %q", f.Name)
	}

	tx := r.db.WithContext(ctx)
	if in.ExtraMetadata == "" {
		// empty string is not valid jsonb
		tx = tx.Omit("ExtraMetadata")
	}
	if err := tx.Create(model).Error; err != nil {
		return nil, database.WrapDBError("CreateComment", err)
	}

	var created models.CommentFields
	switch m := model.(type) {
	case *models.ForecastComment:
		created = m.CommentFields
	case *models.ForecastReviewComment:
		created = m.CommentFields
	case *models.TradeReviewComment:
		created = m.CommentFields
	}
	return &models.CommentRow{CommentFields: created, OwnerID: in.OwnerID}, nil
}

// Update replaces the content of a user comment
func (r *Repository) Update(ctx context.Context, f Family, id int64, content string) (*Node, error) {
	if strings.TrimSpace(content) == "" {
		return nil, database.NewValidationError("content", "must not be empty")
	}
	row, err := r.row(ctx, f, id)
	if err != nil {
		return nil, err
	}
	if row.IsAIResponse {
		return nil, database.ErrAIResponseImmutable
	}

	err = r.db.WithContext(ctx).Table(f.Table).
		Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "updated_at": gorm.Expr("NOW()")}).Error
	if err != nil {
		return nil, database.WrapDBError("UpdateComment", err)
	}
	return r.Get(ctx, f, id)
}

// Delete removes a user comment and everything below it
func (r *Repository) Delete(ctx context.Context, f Family, id int64) error {
	row, err := r.row(ctx, f, id)
	if err != nil {
		return err
	}
	if row.IsAIResponse {
		return database.ErrAIResponseImmutable
	}
	rows, err := r.ownerRows(ctx, f, row.OwnerID)
	if err != nil {
		return err
	}
	ids := append([]int64{id}, Descendants(rows, id)...)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IN ?", f.Table), ids).Error
	})
	if err != nil {
		return database.WrapDBError("DeleteComment", err)
	}
	return nil
}

func (r *Repository) ensureOwner(ctx context.Context, f Family, ownerID int64) error {
	var count int64
	err := r.db.WithContext(ctx).Table(f.OwnerTable).Where("id = ?", ownerID).Count(&count).Error
	if err != nil {
		return database.WrapDBError("ensureOwner", err)
	}
	if count == 0 {
		return database.NewNotFoundErrorWithID(f.OwnerName, ownerID)
	}
	return nil
}

func (r *Repository) row(ctx context.Context, f Family, id int64) (*models.CommentRow, error) {
	var rows []models.CommentRow
	err := r.selectRows(ctx, f).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, database.WrapDBError("GetComment", err)
	}
	if len(rows) == 0 {
		return nil, database.NewNotFoundErrorWithID("comment", id)
	}
	return &rows[0], nil
}

func (r *Repository) ownerRows(ctx context.Context, f Family, ownerID int64) ([]models.CommentRow, error) {
	var rows []models.CommentRow
	err := r.selectRows(ctx, f).
		Where(fmt.Sprintf("%s = ?", f.OwnerColumn), ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, database.WrapDBError("ListComments", err)
	}
	return rows, nil
}

func (r *Repository) selectRows(ctx context.Context, f Family) *gorm.DB {
	return r.db.WithContext(ctx).Table(f.Table).
		Select(fmt.Sprintf("%s.*, %s AS owner_id", f.Table, f.OwnerColumn))
}
