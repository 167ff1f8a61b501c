package social

import (
	"context"

	"github.com/google/uuid"
)

// PostFilter contains filter options for querying the feed
type PostFilter struct {
	AuthorID *uuid.UUID
	Limit    int
	Before   *uuid.UUID // Cursor: return posts created before this one
}

// NewPostFilter creates a filter with the default feed page size
func NewPostFilter() PostFilter {
	return PostFilter{Limit: 50}
}

// PostRepository defines the interface for post persistence
type PostRepository interface {
	// Create creates a new post
	Create(ctx context.Context, post *Post) error

	// Update updates an existing post
	Update(ctx context.Context, post *Post) error

	// Delete deletes a post and its likes and comments
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a post by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)

	// FindFeed returns public posts, newest first
	FindFeed(ctx context.Context, filter PostFilter) ([]*Post, error)

	// AddLike inserts a like row and increments the post's like count in
	// one transaction. Returns false if the user had already liked the post.
	AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	// RemoveLike deletes a like row and decrements the post's like count in
	// one transaction. Returns false if the user had not liked the post.
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	// HasLike checks whether the user has liked the post
	HasLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	// FindLikedPostIDs returns the subset of postIDs the user has liked
	FindLikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error)

	// Count returns the total number of posts
	Count(ctx context.Context) (int64, error)
}

// CommentRepository defines the interface for comment persistence
type CommentRepository interface {
	// Create inserts a comment and increments the post's comment count in
	// one transaction
	Create(ctx context.Context, comment *Comment) error

	// Delete removes a comment and decrements the post's comment count in
	// one transaction
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a comment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Comment, error)

	// FindByPostID returns a post's comments, oldest first
	FindByPostID(ctx context.Context, postID uuid.UUID) ([]*Comment, error)
}
