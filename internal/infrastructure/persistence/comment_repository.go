package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/domain/social"
	"github.com/scholarconnect/backend/internal/infrastructure/persistence/models"
)

// GormCommentRepository implements social.CommentRepository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GormCommentRepository
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create inserts a comment and increments the post's comment counter in
// one transaction. The post must exist.
func (r *GormCommentRepository) Create(ctx context.Context, comment *social.Comment) error {
	model := models.CommentModelFromDomain(comment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PostModel{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Create(model).Error; err != nil {
			return err
		}

		return tx.Model(&models.PostModel{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

// Delete removes a comment and decrements the post's comment counter in
// one transaction.
func (r *GormCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CommentModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Delete(&models.CommentModel{}, "id = ?", id).Error; err != nil {
			return err
		}

		return tx.Model(&models.PostModel{}).
			Where("id = ? AND comment_count > 0", model.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}

// FindByID finds a comment by ID
func (r *GormCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*social.Comment, error) {
	var model models.CommentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPostID returns a post's comments oldest-first
func (r *GormCommentRepository) FindByPostID(ctx context.Context, postID uuid.UUID) ([]*social.Comment, error) {
	var rows []models.CommentModel
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	comments := make([]*social.Comment, len(rows))
	for i := range rows {
		comments[i] = rows[i].ToDomain()
	}
	return comments, nil
}

// Ensure GormCommentRepository implements social.CommentRepository
var _ social.CommentRepository = (*GormCommentRepository)(nil)
