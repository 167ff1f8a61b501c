package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/domain/social"
	"github.com/scholarconnect/backend/internal/infrastructure/persistence/models"
)

// GormPostRepository implements social.PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GormPostRepository
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create creates a new post
func (r *GormPostRepository) Create(ctx context.Context, post *social.Post) error {
	model := models.PostModelFromDomain(post)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing post
func (r *GormPostRepository) Update(ctx context.Context, post *social.Post) error {
	model := models.PostModelFromDomain(post)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a post together with its likes and comments
func (r *GormPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.PostModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Delete(&models.LikeModel{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CommentModel{}, "post_id = ?", id).Error
	})
}

// FindByID finds a post by ID
func (r *GormPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*social.Post, error) {
	var model models.PostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindFeed returns public posts newest-first. The Before cursor pages past
// the creation time of the referenced post; an unknown cursor yields an
// empty page rather than an error.
func (r *GormPostRepository) FindFeed(ctx context.Context, filter social.PostFilter) ([]*social.Post, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PostModel{}).
		Where("visibility = ?", string(social.PostVisibilityPublic))

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}

	if filter.Before != nil {
		var cursor models.PostModel
		err := r.db.WithContext(ctx).
			Select("created_at").
			First(&cursor, "id = ?", *filter.Before).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []*social.Post{}, nil
			}
			return nil, err
		}
		query = query.Where("created_at < ?", cursor.CreatedAt)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.PostModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	posts := make([]*social.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].ToDomain()
	}
	return posts, nil
}

// AddLike records a like and increments the post's counter in one
// transaction. Returns false when the user already liked the post.
func (r *GormPostRepository) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PostModel{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}

		like := models.LikeModel{PostID: postID, UserID: userID, CreatedAt: time.Now()}
		if err := tx.Create(&like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}

		changed = true
		return tx.Model(&models.PostModel{}).
			Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// RemoveLike removes a like and decrements the counter. Returns false
// when no like existed.
func (r *GormPostRepository) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PostModel{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}

		result := tx.Delete(&models.LikeModel{}, "post_id = ? AND user_id = ?", postID, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		changed = true
		return tx.Model(&models.PostModel{}).
			Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// HasLike checks whether a user has liked a post
func (r *GormPostRepository) HasLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LikeModel{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindLikedPostIDs returns the subset of postIDs the user has liked
func (r *GormPostRepository) FindLikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.LikeModel{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error; err != nil {
		return nil, err
	}
	return liked, nil
}

// Count returns the total number of posts
func (r *GormPostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PostModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormPostRepository implements social.PostRepository
var _ social.PostRepository = (*GormPostRepository)(nil)
