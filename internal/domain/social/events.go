package social

import (
	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

// Aggregate type constant for Post
const AggregateTypePost = "Post"

// Post domain event types. These drive the realtime change stream, so
// every mutation of a post or its counters has a corresponding event.
const (
	EventTypePostCreated    = "PostCreated"
	EventTypePostUpdated    = "PostUpdated"
	EventTypePostDeleted    = "PostDeleted"
	EventTypePostLiked      = "PostLiked"
	EventTypePostUnliked    = "PostUnliked"
	EventTypeCommentAdded   = "CommentAdded"
	EventTypeCommentDeleted = "CommentDeleted"
)

// PostCreatedEvent is published when a post is created
type PostCreatedEvent struct {
	shared.BaseDomainEvent
	AuthorID uuid.UUID `json:"author_id"`
	Content  string    `json:"content"`
}

// NewPostCreatedEvent creates a new PostCreatedEvent
func NewPostCreatedEvent(post *Post) *PostCreatedEvent {
	return &PostCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostCreated, AggregateTypePost, post.ID),
		AuthorID:        post.AuthorID,
		Content:         post.Content,
	}
}

// PostUpdatedEvent is published when a post's content is edited
type PostUpdatedEvent struct {
	shared.BaseDomainEvent
	AuthorID uuid.UUID `json:"author_id"`
	Content  string    `json:"content"`
}

// NewPostUpdatedEvent creates a new PostUpdatedEvent
func NewPostUpdatedEvent(post *Post) *PostUpdatedEvent {
	return &PostUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostUpdated, AggregateTypePost, post.ID),
		AuthorID:        post.AuthorID,
		Content:         post.Content,
	}
}

// PostDeletedEvent is published when a post is deleted
type PostDeletedEvent struct {
	shared.BaseDomainEvent
	AuthorID uuid.UUID `json:"author_id"`
}

// NewPostDeletedEvent creates a new PostDeletedEvent
func NewPostDeletedEvent(post *Post) *PostDeletedEvent {
	return &PostDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostDeleted, AggregateTypePost, post.ID),
		AuthorID:        post.AuthorID,
	}
}

// PostLikedEvent is published when a user likes a post
type PostLikedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID `json:"user_id"`
	LikeCount int       `json:"like_count"`
}

// NewPostLikedEvent creates a new PostLikedEvent
func NewPostLikedEvent(post *Post, userID uuid.UUID) *PostLikedEvent {
	return &PostLikedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostLiked, AggregateTypePost, post.ID),
		UserID:          userID,
		LikeCount:       post.LikeCount,
	}
}

// PostUnlikedEvent is published when a user removes a like
type PostUnlikedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID `json:"user_id"`
	LikeCount int       `json:"like_count"`
}

// NewPostUnlikedEvent creates a new PostUnlikedEvent
func NewPostUnlikedEvent(post *Post, userID uuid.UUID) *PostUnlikedEvent {
	return &PostUnlikedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostUnliked, AggregateTypePost, post.ID),
		UserID:          userID,
		LikeCount:       post.LikeCount,
	}
}

// CommentAddedEvent is published when a comment is added to a post
type CommentAddedEvent struct {
	shared.BaseDomainEvent
	CommentID    uuid.UUID `json:"comment_id"`
	AuthorID     uuid.UUID `json:"author_id"`
	CommentCount int       `json:"comment_count"`
}

// NewCommentAddedEvent creates a new CommentAddedEvent
func NewCommentAddedEvent(post *Post, comment *Comment) *CommentAddedEvent {
	return &CommentAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommentAdded, AggregateTypePost, post.ID),
		CommentID:       comment.ID,
		AuthorID:        comment.AuthorID,
		CommentCount:    post.CommentCount,
	}
}

// CommentDeletedEvent is published when a comment is removed from a post
type CommentDeletedEvent struct {
	shared.BaseDomainEvent
	CommentID    uuid.UUID `json:"comment_id"`
	CommentCount int       `json:"comment_count"`
}

// NewCommentDeletedEvent creates a new CommentDeletedEvent
func NewCommentDeletedEvent(post *Post, commentID uuid.UUID) *CommentDeletedEvent {
	return &CommentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommentDeleted, AggregateTypePost, post.ID),
		CommentID:       commentID,
		CommentCount:    post.CommentCount,
	}
}
