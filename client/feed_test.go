package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePost(content string) Post {
	return Post{
		ID:        uuid.New(),
		AuthorID:  uuid.New(),
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func feedIDs(f *FeedSynchronizer) []uuid.UUID {
	snapshot := f.Snapshot()
	ids := make([]uuid.UUID, len(snapshot))
	for i, p := range snapshot {
		ids[i] = p.ID
	}
	return ids
}

func TestFeedSynchronizer_LoadInitialReplacesList(t *testing.T) {
	first := makePost("newest")
	second := makePost("older")
	backend := &fakeBackend{
		fetchFeedFn: func(ctx context.Context, limit int, before *uuid.UUID) (*FeedPage, error) {
			assert.Equal(t, 20, limit)
			assert.Nil(t, before)
			return &FeedPage{Posts: []Post{first, second}}, nil
		},
	}

	f := NewFeedSynchronizer(backend)
	f.prepend(makePost("stale"))

	require.NoError(t, f.LoadInitial(context.Background(), 0))
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, feedIDs(f))
}

func TestFeedSynchronizer_CreatePostValidation(t *testing.T) {
	calls := 0
	backend := &fakeBackend{
		createPostFn: func(ctx context.Context, content string) (*Post, error) {
			calls++
			return nil, nil
		},
	}
	f := NewFeedSynchronizer(backend)

	_, err := f.CreatePost(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = f.CreatePost(context.Background(), strings.Repeat("a", MaxPostLength+1))
	require.ErrorIs(t, err, ErrContentTooLong)

	assert.Zero(t, calls, "invalid content must not reach the network")
}

func TestFeedSynchronizer_CreatePostPrependsAuthoritativeRow(t *testing.T) {
	authorID := uuid.New()
	backend := &fakeBackend{
		createPostFn: func(ctx context.Context, content string) (*Post, error) {
			return &Post{ID: uuid.New(), AuthorID: authorID, Content: content, CreatedAt: time.Now()}, nil
		},
	}
	f := NewFeedSynchronizer(backend)
	existing := makePost("already here")
	f.prepend(existing)

	post, err := f.CreatePost(context.Background(), "  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", post.Content)

	ids := feedIDs(f)
	require.Len(t, ids, 2)
	assert.Equal(t, post.ID, ids[0], "new post goes to the top")
	assert.Equal(t, existing.ID, ids[1])
}

func TestFeedSynchronizer_ApplyInsertDedupsOptimisticCreate(t *testing.T) {
	created := makePost("mine")
	fetches := 0
	backend := &fakeBackend{
		createPostFn: func(ctx context.Context, content string) (*Post, error) {
			p := created
			return &p, nil
		},
		fetchPostFn: func(ctx context.Context, postID uuid.UUID) (*Post, error) {
			fetches++
			return nil, errors.New("should not be called")
		},
	}
	f := NewFeedSynchronizer(backend)

	_, err := f.CreatePost(context.Background(), "mine")
	require.NoError(t, err)

	// The stream echoes the insert we already applied locally
	f.Apply(context.Background(), ChangeEvent{Type: ChangeInsert, PostID: created.ID})

	assert.Zero(t, fetches)
	assert.Len(t, f.Snapshot(), 1)
}

func TestFeedSynchronizer_ApplyInsertFetchesAndPrepends(t *testing.T) {
	incoming := makePost("from someone else")
	backend := &fakeBackend{
		fetchPostFn: func(ctx context.Context, postID uuid.UUID) (*Post, error) {
			require.Equal(t, incoming.ID, postID)
			p := incoming
			return &p, nil
		},
	}
	f := NewFeedSynchronizer(backend)
	existing := makePost("older")
	f.prepend(existing)

	f.Apply(context.Background(), ChangeEvent{Type: ChangeInsert, PostID: incoming.ID})

	assert.Equal(t, []uuid.UUID{incoming.ID, existing.ID}, feedIDs(f))
}

func TestFeedSynchronizer_ApplyInsertGoneBeforeFetch(t *testing.T) {
	backend := &fakeBackend{
		fetchPostFn: func(ctx context.Context, postID uuid.UUID) (*Post, error) {
			return nil, &APIError{Code: "ERR_NOT_FOUND", HTTPStatus: 404, wrapped: ErrNotFound}
		},
	}
	f := NewFeedSynchronizer(backend)

	// Post deleted between the insert event and our fetch; drop silently
	f.Apply(context.Background(), ChangeEvent{Type: ChangeInsert, PostID: uuid.New()})
	assert.Empty(t, f.Snapshot())
}

func TestFeedSynchronizer_ApplyUpdatePatchesInPlace(t *testing.T) {
	target := makePost("original")
	newer := makePost("newer")
	backend := &fakeBackend{
		fetchPostFn: func(ctx context.Context, postID uuid.UUID) (*Post, error) {
			p := target
			p.Content = "edited"
			p.LikeCount = 7
			p.CommentCount = 3
			p.Liked = true
			return &p, nil
		},
	}
	f := NewFeedSynchronizer(backend)
	f.prepend(target)
	f.prepend(newer)

	f.Apply(context.Background(), ChangeEvent{Type: ChangeUpdate, PostID: target.ID})

	// Updates never reorder
	assert.Equal(t, []uuid.UUID{newer.ID, target.ID}, feedIDs(f))
	got, ok := f.Get(target.ID)
	require.True(t, ok)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, 7, got.LikeCount)
	assert.Equal(t, 3, got.CommentCount)
	assert.True(t, got.Liked)
}

func TestFeedSynchronizer_ApplyUpdateForUnknownPostIgnored(t *testing.T) {
	fetches := 0
	backend := &fakeBackend{
		fetchPostFn: func(ctx context.Context, postID uuid.UUID) (*Post, error) {
			fetches++
			return &Post{ID: postID}, nil
		},
	}
	f := NewFeedSynchronizer(backend)

	f.Apply(context.Background(), ChangeEvent{Type: ChangeUpdate, PostID: uuid.New()})

	assert.Zero(t, fetches, "updates for posts outside the local window are skipped")
	assert.Empty(t, f.Snapshot())
}

func TestFeedSynchronizer_ApplyDelete(t *testing.T) {
	keep := makePost("keep")
	gone := makePost("gone")
	f := NewFeedSynchronizer(&fakeBackend{})
	f.prepend(gone)
	f.prepend(keep)

	f.Apply(context.Background(), ChangeEvent{Type: ChangeDelete, PostID: gone.ID})
	assert.Equal(t, []uuid.UUID{keep.ID}, feedIDs(f))

	// Deleting an absent post is a no-op
	f.Apply(context.Background(), ChangeEvent{Type: ChangeDelete, PostID: gone.ID})
	assert.Equal(t, []uuid.UUID{keep.ID}, feedIDs(f))
}

func TestFeedSynchronizer_OnChangeFiresPerMutation(t *testing.T) {
	f := NewFeedSynchronizer(&fakeBackend{})
	var mu sync.Mutex
	fired := 0
	f.OnChange(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	p := makePost("one")
	f.prepend(p)
	f.remove(p.ID)
	f.remove(p.ID) // no-op, no notification

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, fired)
}

func TestFeedSynchronizer_RunReloadsOnReconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loads := 0
	connects := 0
	backend := &fakeBackend{
		fetchFeedFn: func(ctx context.Context, limit int, before *uuid.UUID) (*FeedPage, error) {
			loads++
			return &FeedPage{Posts: []Post{makePost("fresh")}}, nil
		},
		streamFn: func(ctx context.Context) (<-chan ChangeEvent, error) {
			connects++
			if connects >= 3 {
				cancel()
				return nil, &TransportError{Err: errors.New("stopping")}
			}
			ch := make(chan ChangeEvent)
			close(ch) // stream drops immediately, forcing a reconnect
			return ch, nil
		},
	}

	f := NewFeedSynchronizer(backend, WithFeedBackoff(time.Millisecond, 2*time.Millisecond))
	f.Run(ctx)

	// Each successful (re)connect repairs missed events with a full reload
	assert.Equal(t, 2, loads)
	assert.GreaterOrEqual(t, connects, 3)
}
