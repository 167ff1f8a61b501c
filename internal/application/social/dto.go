package social

import (
	"time"

	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/social"
)

// AuthorInfo is the display subset of a profile joined onto posts and
// comments.
type AuthorInfo struct {
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// CreatePostInput contains the content for a new post
type CreatePostInput struct {
	Content string `json:"content" binding:"required"`
}

// EditPostInput contains the replacement content for a post
type EditPostInput struct {
	Content string `json:"content" binding:"required"`
}

// FeedQuery contains paging options for the feed
type FeedQuery struct {
	Limit  int        `form:"limit"`
	Before *uuid.UUID `form:"before"`
}

// PostResponse is a post with its author display fields and the viewer's
// like state.
type PostResponse struct {
	ID           uuid.UUID  `json:"id"`
	Author       AuthorInfo `json:"author"`
	Content      string     `json:"content"`
	Visibility   string     `json:"visibility"`
	LikeCount    int        `json:"likes_count"`
	CommentCount int        `json:"comments_count"`
	LikedByMe    bool       `json:"liked_by_me"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FeedResponse is a page of the public feed, newest first
type FeedResponse struct {
	Posts []PostResponse `json:"posts"`
}

// AddCommentInput contains the content for a new comment
type AddCommentInput struct {
	Content string `json:"content" binding:"required"`
}

// CommentResponse is a comment with its author display fields
type CommentResponse struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	Author    AuthorInfo `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// toPostResponse maps a domain post to its DTO. Author and like state
// are filled in by the service.
func toPostResponse(post *social.Post, author AuthorInfo, likedByMe bool) PostResponse {
	return PostResponse{
		ID:           post.ID,
		Author:       author,
		Content:      post.Content,
		Visibility:   string(post.Visibility),
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		LikedByMe:    likedByMe,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
}

// toCommentResponse maps a domain comment to its DTO
func toCommentResponse(comment *social.Comment, author AuthorInfo) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Author:    author,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
