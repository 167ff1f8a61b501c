package social

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

// MaxPostLength is the upper bound on post content, in bytes after trimming.
const MaxPostLength = 500

// PostVisibility controls who can see a post
type PostVisibility string

const (
	PostVisibilityPublic PostVisibility = "public"
)

// Post is a short piece of content an author shares to the feed.
// Like and comment counts are denormalized onto the aggregate and kept
// consistent by the repository inside the same transaction that writes
// the like or comment row.
type Post struct {
	shared.BaseAggregateRoot
	AuthorID     uuid.UUID
	Content      string
	Visibility   PostVisibility
	LikeCount    int
	CommentCount int
}

// NewPost creates a new public post
func NewPost(authorID uuid.UUID, content string) (*Post, error) {
	if authorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AUTHOR_ID", "Author ID cannot be empty")
	}

	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	post := &Post{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AuthorID:          authorID,
		Content:           content,
		Visibility:        PostVisibilityPublic,
	}

	post.AddDomainEvent(NewPostCreatedEvent(post))

	return post, nil
}

// Edit replaces the post content. Only the author may edit.
func (p *Post) Edit(editorID uuid.UUID, content string) error {
	if editorID != p.AuthorID {
		return shared.NewDomainError("NOT_POST_AUTHOR", "Only the author can edit this post")
	}

	content, err := normalizeContent(content)
	if err != nil {
		return err
	}

	p.Content = content
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPostUpdatedEvent(p))

	return nil
}

// CanDelete reports whether the given user may delete this post
func (p *Post) CanDelete(userID uuid.UUID) bool {
	return userID == p.AuthorID
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", shared.NewDomainError("EMPTY_POST", "Post content cannot be empty")
	}
	if len(content) > MaxPostLength {
		return "", shared.NewDomainError("POST_TOO_LONG", "Post content cannot exceed 500 characters")
	}
	return content, nil
}
