package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Content bounds, matching the server's limits (bytes after trimming).
const (
	MaxPostLength    = 500
	MaxCommentLength = 300

	// DefaultFeedPageSize is used when LoadInitial gets limit <= 0.
	DefaultFeedPageSize = 20
)

// FeedSynchronizer maintains the ordered local feed: seeded by a page
// fetch, kept live by the change stream. List order is determined solely
// by the initial fetch plus prepend-on-insert; updates and deletes never
// reorder.
type FeedSynchronizer struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.RWMutex
	posts    []Post
	limit    int
	onChange []func()

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// FeedOption is a functional option for the synchronizer.
type FeedOption func(*FeedSynchronizer)

// WithFeedLogger sets the logger.
func WithFeedLogger(logger *zap.Logger) FeedOption {
	return func(f *FeedSynchronizer) {
		f.logger = logger
	}
}

// WithFeedBackoff sets the reconnect backoff bounds.
func WithFeedBackoff(initial, max time.Duration) FeedOption {
	return func(f *FeedSynchronizer) {
		f.initialBackoff = initial
		f.maxBackoff = max
	}
}

// NewFeedSynchronizer creates an empty synchronizer.
func NewFeedSynchronizer(backend Backend, opts ...FeedOption) *FeedSynchronizer {
	f := &FeedSynchronizer{
		backend:        backend,
		logger:         zap.NewNop(),
		limit:          DefaultFeedPageSize,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnChange registers a hook invoked after every mutation of the local
// list. Hooks run synchronously on the mutating goroutine.
func (f *FeedSynchronizer) OnChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = append(f.onChange, fn)
}

func (f *FeedSynchronizer) notify() {
	f.mu.RLock()
	hooks := make([]func(), len(f.onChange))
	copy(hooks, f.onChange)
	f.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

// Snapshot returns a copy of the ordered local list, newest first.
func (f *FeedSynchronizer) Snapshot() []Post {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// LoadInitial replaces the local list with the most recent page from the
// server.
func (f *FeedSynchronizer) LoadInitial(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultFeedPageSize
	}

	page, err := f.backend.FetchFeed(ctx, limit, nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.limit = limit
	f.posts = page.Posts
	f.mu.Unlock()

	f.notify()
	return nil
}

// CreatePost validates locally, publishes through the backend, and
// prepends the authoritative returned row. The later insert event for
// the same post is deduplicated by identity.
func (f *FeedSynchronizer) CreatePost(ctx context.Context, content string) (*Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > MaxPostLength {
		return nil, ErrContentTooLong
	}

	post, err := f.backend.CreatePost(ctx, content)
	if err != nil {
		return nil, err
	}

	f.prepend(*post)
	return post, nil
}

// Run consumes the change stream until ctx is cancelled. Each
// (re)connection runs a fresh LoadInitial to repair events missed while
// disconnected; there is no gap-filling by sequence number.
func (f *FeedSynchronizer) Run(ctx context.Context) {
	backoff := f.initialBackoff

	for ctx.Err() == nil {
		events, err := f.backend.StreamPostChanges(ctx)
		if err != nil {
			f.logger.Warn("Change stream connect failed, retrying",
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, f.maxBackoff)
			continue
		}
		backoff = f.initialBackoff

		f.mu.RLock()
		limit := f.limit
		f.mu.RUnlock()
		if err := f.LoadInitial(ctx, limit); err != nil {
			f.logger.Warn("Feed reload after (re)connect failed", zap.Error(err))
		}

		for event := range events {
			f.Apply(ctx, event)
		}
		// Stream ended; loop resubscribes
	}
}

// Apply reconciles one change-stream event into the local list. All
// branches are idempotent, keyed by post identity, so events arriving
// out of order or duplicated converge to the same state.
func (f *FeedSynchronizer) Apply(ctx context.Context, event ChangeEvent) {
	switch event.Type {
	case ChangeInsert:
		if f.contains(event.PostID) {
			return // optimistic local insert already present
		}
		post, err := f.backend.FetchPost(ctx, event.PostID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				f.logger.Warn("Failed to fetch inserted post", zap.Error(err))
			}
			return // deleted before we caught up, or transient failure
		}
		f.prepend(*post)

	case ChangeUpdate:
		if !f.contains(event.PostID) {
			return
		}
		post, err := f.backend.FetchPost(ctx, event.PostID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				f.logger.Warn("Failed to fetch updated post", zap.Error(err))
			}
			return
		}
		f.patch(*post)

	case ChangeDelete:
		f.remove(event.PostID)
	}
}

func (f *FeedSynchronizer) contains(postID uuid.UUID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.indexOf(postID) >= 0
}

// indexOf requires f.mu held.
func (f *FeedSynchronizer) indexOf(postID uuid.UUID) int {
	for i := range f.posts {
		if f.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func (f *FeedSynchronizer) prepend(post Post) {
	f.mu.Lock()
	if f.indexOf(post.ID) >= 0 {
		f.mu.Unlock()
		return
	}
	f.posts = append([]Post{post}, f.posts...)
	f.mu.Unlock()
	f.notify()
}

// patch overwrites the mutable fields of a local entry in place. The
// entry keeps its position. Counters coming from the server are
// authoritative and overwrite any optimistic drift.
func (f *FeedSynchronizer) patch(post Post) {
	f.mu.Lock()
	i := f.indexOf(post.ID)
	if i < 0 {
		f.mu.Unlock()
		return
	}
	f.posts[i].Content = post.Content
	f.posts[i].LikeCount = post.LikeCount
	f.posts[i].CommentCount = post.CommentCount
	f.posts[i].Liked = post.Liked
	f.posts[i].UpdatedAt = post.UpdatedAt
	f.mu.Unlock()
	f.notify()
}

func (f *FeedSynchronizer) remove(postID uuid.UUID) {
	f.mu.Lock()
	i := f.indexOf(postID)
	if i < 0 {
		f.mu.Unlock()
		return
	}
	f.posts = append(f.posts[:i], f.posts[i+1:]...)
	f.mu.Unlock()
	f.notify()
}

// Get returns the local copy of a post, if present.
func (f *FeedSynchronizer) Get(postID uuid.UUID) (*Post, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := f.indexOf(postID)
	if i < 0 {
		return nil, false
	}
	p := f.posts[i]
	return &p, true
}

// mutate applies fn to the local entry for postID under the lock.
func (f *FeedSynchronizer) mutate(postID uuid.UUID, fn func(*Post)) bool {
	f.mu.Lock()
	i := f.indexOf(postID)
	if i < 0 {
		f.mu.Unlock()
		return false
	}
	fn(&f.posts[i])
	f.mu.Unlock()
	f.notify()
	return true
}
