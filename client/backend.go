// Package client is the coordination kit for ScholarConnect frontends:
// session lifecycle, profile routing, feed synchronization against the
// post change stream, and optimistic post interactions. Everything is
// built against the Backend interface; HTTPBackend is the production
// implementation and tests plug in fakes.
package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenPair holds the access/refresh token pair issued at sign-in.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Session is the authenticated identity plus its token validity window.
type Session struct {
	AccountID     uuid.UUID `json:"account_id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Tokens        TokenPair `json:"tokens"`
}

// Profile is the extended user record beyond the auth identity.
type Profile struct {
	ID             uuid.UUID `json:"id"`
	AccountID      uuid.UUID `json:"account_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Age            *int      `json:"age,omitempty"`
	School         string    `json:"school"`
	GraduationYear *int      `json:"graduation_year,omitempty"`
	AvatarURL      string    `json:"avatar_url"`
	Completed      bool      `json:"completed"`
	Skipped        bool      `json:"skipped"`
}

// ProfileSeed carries the optional profile fields collected at sign-up.
type ProfileSeed struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileDetails is the payload for completing profile setup.
type ProfileDetails struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Age            int    `json:"age"`
	School         string `json:"school"`
	GraduationYear int    `json:"graduation_year"`
}

// Post is a feed entry with joined author display fields and the
// server-maintained counters.
type Post struct {
	ID           uuid.UUID `json:"id"`
	AuthorID     uuid.UUID `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	Content      string    `json:"content"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	Liked        bool      `json:"liked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Comment is a single post comment, ordered ascending by creation time.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeedPage is one page of the public feed, newest first.
type FeedPage struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
}

// ChangeType classifies a post change-stream event.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is one row-level event from the post change stream.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	PostID    uuid.UUID  `json:"post_id"`
	Timestamp int64      `json:"timestamp"`
}

// AvatarUploadTicket is a presigned upload slot for an avatar object.
type AvatarUploadTicket struct {
	UploadURL  string    `json:"upload_url"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AccountSummary identifies the authenticated account.
type AccountSummary struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
}

// Backend is the typed facade over the hosted service. The coordination
// layer treats it as an external collaborator; it performs no business
// logic beyond transport and decoding.
type Backend interface {
	// Auth
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Me(ctx context.Context) (*AccountSummary, error)

	// Profile
	GetProfile(ctx context.Context) (*Profile, error)
	EnsureProfile(ctx context.Context) (*Profile, error)
	CompleteProfile(ctx context.Context, details ProfileDetails) (*Profile, error)
	SkipProfile(ctx context.Context) (*Profile, error)
	RequestAvatarUpload(ctx context.Context, filename, contentType string) (*AvatarUploadTicket, error)
	ConfirmAvatar(ctx context.Context, storageKey string) (*Profile, error)

	// Feed
	FetchFeed(ctx context.Context, limit int, before *uuid.UUID) (*FeedPage, error)
	FetchPost(ctx context.Context, postID uuid.UUID) (*Post, error)
	CreatePost(ctx context.Context, content string) (*Post, error)
	EditPost(ctx context.Context, postID uuid.UUID, content string) (*Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error

	// Interactions
	Like(ctx context.Context, postID uuid.UUID) (*Post, error)
	Unlike(ctx context.Context, postID uuid.UUID) (*Post, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]Comment, error)
	AddComment(ctx context.Context, postID uuid.UUID, text string) (*Comment, error)

	// Realtime. The returned channel closes when the stream ends; the
	// error return covers connection establishment only.
	StreamPostChanges(ctx context.Context) (<-chan ChangeEvent, error)
}
