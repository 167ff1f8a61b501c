package client

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interactionsHarness wires a feed seeded with one post owned by the
// signed-in account.
func interactionsHarness(t *testing.T, backend *fakeBackend) (*InteractionManager, *FeedSynchronizer, Post) {
	t.Helper()

	accountID := uuid.New()
	backend.signInFn = func(ctx context.Context, email, password string) (*Session, error) {
		return &Session{AccountID: accountID, Email: email, EmailVerified: true}, nil
	}
	sessions := NewSessionManager(backend, NewMemoryTokenStore())
	require.NoError(t, sessions.SignIn(context.Background(), "grace@school.edu", "secret123"))

	feed := NewFeedSynchronizer(backend)
	own := Post{ID: uuid.New(), AuthorID: accountID, Content: "mine", LikeCount: 2, CreatedAt: time.Now()}
	feed.prepend(own)

	return NewInteractionManager(backend, feed, sessions), feed, own
}

func TestInteractionManager_ToggleLikeOptimisticThenAuthoritative(t *testing.T) {
	var likedDuringCall bool
	backend := &fakeBackend{}
	m, feed, own := interactionsHarness(t, backend)

	backend.likeFn = func(ctx context.Context, postID uuid.UUID) (*Post, error) {
		// The flip is visible before the backend answers
		p, ok := feed.Get(postID)
		require.True(t, ok)
		likedDuringCall = p.Liked
		// Server count disagrees with the optimistic one
		return &Post{ID: postID, Liked: true, LikeCount: 9}, nil
	}

	require.NoError(t, m.ToggleLike(context.Background(), own.ID))

	assert.True(t, likedDuringCall)
	got, ok := feed.Get(own.ID)
	require.True(t, ok)
	assert.True(t, got.Liked)
	assert.Equal(t, 9, got.LikeCount, "server counter overwrites optimistic drift")
}

func TestInteractionManager_ToggleLikeRevertsOnFailure(t *testing.T) {
	backend := &fakeBackend{
		likeFn: func(ctx context.Context, postID uuid.UUID) (*Post, error) {
			return nil, &TransportError{Err: errors.New("timeout")}
		},
	}
	m, feed, own := interactionsHarness(t, backend)

	err := m.ToggleLike(context.Background(), own.ID)
	require.Error(t, err)

	got, ok := feed.Get(own.ID)
	require.True(t, ok)
	assert.False(t, got.Liked)
	assert.Equal(t, own.LikeCount, got.LikeCount)
}

func TestInteractionManager_ToggleLikeUnknownPost(t *testing.T) {
	m, _, _ := interactionsHarness(t, &fakeBackend{})
	err := m.ToggleLike(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInteractionManager_UnlikeAfterLike(t *testing.T) {
	backend := &fakeBackend{}
	m, feed, own := interactionsHarness(t, backend)

	unlikes := 0
	backend.unlikeFn = func(ctx context.Context, postID uuid.UUID) (*Post, error) {
		unlikes++
		return &Post{ID: postID, Liked: false, LikeCount: 2}, nil
	}

	require.NoError(t, m.ToggleLike(context.Background(), own.ID)) // like
	require.NoError(t, m.ToggleLike(context.Background(), own.ID)) // unlike

	assert.Equal(t, 1, unlikes)
	got, _ := feed.Get(own.ID)
	assert.False(t, got.Liked)
}

func TestInteractionManager_LoadCommentsCachesFirstFetch(t *testing.T) {
	backend := &fakeBackend{}
	m, _, own := interactionsHarness(t, backend)

	fetches := 0
	backend.listCommentsFn = func(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
		fetches++
		return []Comment{{ID: uuid.New(), PostID: postID, Content: "first"}}, nil
	}

	first, err := m.LoadComments(context.Background(), own.ID)
	require.NoError(t, err)
	second, err := m.LoadComments(context.Background(), own.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, fetches, "second expand reuses the cache")
	assert.Equal(t, first, second)
}

func TestInteractionManager_AddCommentValidation(t *testing.T) {
	backend := &fakeBackend{}
	calls := 0
	backend.addCommentFn = func(ctx context.Context, postID uuid.UUID, text string) (*Comment, error) {
		calls++
		return nil, nil
	}
	m, _, own := interactionsHarness(t, backend)

	_, err := m.AddComment(context.Background(), own.ID, "   ")
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = m.AddComment(context.Background(), own.ID, strings.Repeat("b", MaxCommentLength+1))
	require.ErrorIs(t, err, ErrContentTooLong)

	assert.Zero(t, calls)
}

func TestInteractionManager_AddCommentAppendsAndBumpsCounter(t *testing.T) {
	backend := &fakeBackend{}
	m, feed, own := interactionsHarness(t, backend)

	base := time.Now()
	existing := Comment{ID: uuid.New(), PostID: own.ID, Content: "earlier", CreatedAt: base.Add(-time.Minute)}
	backend.listCommentsFn = func(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
		return []Comment{existing}, nil
	}
	backend.addCommentFn = func(ctx context.Context, postID uuid.UUID, text string) (*Comment, error) {
		return &Comment{ID: uuid.New(), PostID: postID, Content: text, CreatedAt: base}, nil
	}

	_, err := m.LoadComments(context.Background(), own.ID)
	require.NoError(t, err)

	added, err := m.AddComment(context.Background(), own.ID, "  reply  ")
	require.NoError(t, err)
	assert.Equal(t, "reply", added.Content)

	comments, ok := m.Comments(own.ID)
	require.True(t, ok)
	require.Len(t, comments, 2)
	// Ascending by creation time: the new comment lands last
	assert.Equal(t, existing.ID, comments[0].ID)
	assert.Equal(t, added.ID, comments[1].ID)

	got, _ := feed.Get(own.ID)
	assert.Equal(t, 1, got.CommentCount-own.CommentCount)
}

func TestInteractionManager_EditPostOwnership(t *testing.T) {
	backend := &fakeBackend{}
	m, feed, own := interactionsHarness(t, backend)

	other := Post{ID: uuid.New(), AuthorID: uuid.New(), Content: "not mine", CreatedAt: time.Now()}
	feed.prepend(other)

	err := m.EditPost(context.Background(), other.ID, "hijack")
	require.ErrorIs(t, err, ErrForbidden)

	backend.editPostFn = func(ctx context.Context, postID uuid.UUID, content string) (*Post, error) {
		return &Post{ID: postID, AuthorID: own.AuthorID, Content: content, UpdatedAt: time.Now()}, nil
	}
	require.NoError(t, m.EditPost(context.Background(), own.ID, "updated"))

	got, _ := feed.Get(own.ID)
	assert.Equal(t, "updated", got.Content)
}

func TestInteractionManager_DeletePostRemovesLocalState(t *testing.T) {
	backend := &fakeBackend{}
	m, feed, own := interactionsHarness(t, backend)

	backend.listCommentsFn = func(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
		return []Comment{{ID: uuid.New(), PostID: postID}}, nil
	}
	_, err := m.LoadComments(context.Background(), own.ID)
	require.NoError(t, err)

	require.NoError(t, m.DeletePost(context.Background(), own.ID))

	_, ok := feed.Get(own.ID)
	assert.False(t, ok)
	_, ok = m.Comments(own.ID)
	assert.False(t, ok, "comment cache entry is dropped with the post")
}

func TestInteractionManager_DeletePostBackendFailureKeepsPost(t *testing.T) {
	backend := &fakeBackend{
		deletePostFn: func(ctx context.Context, postID uuid.UUID) error {
			return &TransportError{Err: errors.New("timeout")}
		},
	}
	m, feed, own := interactionsHarness(t, backend)

	err := m.DeletePost(context.Background(), own.ID)
	require.Error(t, err)
	_, ok := feed.Get(own.ID)
	assert.True(t, ok)
}
