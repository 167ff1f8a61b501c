package social

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

// MaxCommentLength is the upper bound on comment content, in bytes after trimming.
const MaxCommentLength = 300

// Comment is a reply attached to a post
type Comment struct {
	shared.BaseEntity
	PostID   uuid.UUID
	AuthorID uuid.UUID
	Content  string
}

// NewComment creates a new comment on a post
func NewComment(postID, authorID uuid.UUID, content string) (*Comment, error) {
	if postID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_POST_ID", "Post ID cannot be empty")
	}
	if authorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AUTHOR_ID", "Author ID cannot be empty")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.NewDomainError("EMPTY_COMMENT", "Comment content cannot be empty")
	}
	if len(content) > MaxCommentLength {
		return nil, shared.NewDomainError("COMMENT_TOO_LONG", "Comment content cannot exceed 300 characters")
	}

	return &Comment{
		BaseEntity: shared.NewBaseEntity(),
		PostID:     postID,
		AuthorID:   authorID,
		Content:    content,
	}, nil
}

// CanDelete reports whether the given user may delete this comment
func (c *Comment) CanDelete(userID uuid.UUID) bool {
	return userID == c.AuthorID
}

// Like records that a user liked a post. One row per (post, user) pair.
type Like struct {
	PostID    uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// NewLike creates a new like
func NewLike(postID, userID uuid.UUID) (*Like, error) {
	if postID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_POST_ID", "Post ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER_ID", "User ID cannot be empty")
	}

	return &Like{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}, nil
}
