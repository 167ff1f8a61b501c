package client

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InteractionManager handles per-post like/comment state: optimistic
// local mutations with authoritative reconciliation through the feed's
// update events, plus a lazy per-post comment cache.
type InteractionManager struct {
	backend  Backend
	feed     *FeedSynchronizer
	sessions *SessionManager
	logger   *zap.Logger

	mu       sync.Mutex
	comments map[uuid.UUID][]Comment // lazily loaded, cached per post
}

// InteractionOption is a functional option for the manager.
type InteractionOption func(*InteractionManager)

// WithInteractionLogger sets the logger.
func WithInteractionLogger(logger *zap.Logger) InteractionOption {
	return func(m *InteractionManager) {
		m.logger = logger
	}
}

// NewInteractionManager creates a manager bound to the local feed.
func NewInteractionManager(backend Backend, feed *FeedSynchronizer, sessions *SessionManager, opts ...InteractionOption) *InteractionManager {
	m := &InteractionManager{
		backend:  backend,
		feed:     feed,
		sessions: sessions,
		logger:   zap.NewNop(),
		comments: make(map[uuid.UUID][]Comment),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ToggleLike flips the caller's like on a post. The local flag and
// counter change immediately; on backend failure the flip is reverted.
// The authoritative counter later arrives via the post's update event
// and overwrites whatever the optimistic value drifted to.
func (m *InteractionManager) ToggleLike(ctx context.Context, postID uuid.UUID) error {
	post, ok := m.feed.Get(postID)
	if !ok {
		return ErrNotFound
	}
	liking := !post.Liked

	// Optimistic flip
	m.feed.mutate(postID, func(p *Post) {
		p.Liked = liking
		if liking {
			p.LikeCount++
		} else if p.LikeCount > 0 {
			p.LikeCount--
		}
	})

	var err error
	var fresh *Post
	if liking {
		fresh, err = m.backend.Like(ctx, postID)
	} else {
		fresh, err = m.backend.Unlike(ctx, postID)
	}
	if err != nil {
		// Revert the flip; the transient error surfaces to the caller
		m.feed.mutate(postID, func(p *Post) {
			p.Liked = !liking
			if liking && p.LikeCount > 0 {
				p.LikeCount--
			} else if !liking {
				p.LikeCount++
			}
		})
		return err
	}

	// The response already carries the authoritative counter
	m.feed.mutate(postID, func(p *Post) {
		p.Liked = fresh.Liked
		p.LikeCount = fresh.LikeCount
	})
	return nil
}

// Comments returns the cached comment list for a post and whether it
// has been loaded yet.
func (m *InteractionManager) Comments(postID uuid.UUID) ([]Comment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cached, ok := m.comments[postID]
	if !ok {
		return nil, false
	}
	out := make([]Comment, len(cached))
	copy(out, cached)
	return out, true
}

// LoadComments fetches a post's comments on first expand and caches
// them; later expands reuse the cache.
func (m *InteractionManager) LoadComments(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	if cached, ok := m.Comments(postID); ok {
		return cached, nil
	}

	comments, err := m.backend.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.comments[postID] = comments
	m.mu.Unlock()

	out := make([]Comment, len(comments))
	copy(out, comments)
	return out, nil
}

// AddComment validates, posts the comment, appends the authoritative row
// to the cached list (kept ascending by creation time) and bumps the
// displayed counter.
func (m *InteractionManager) AddComment(ctx context.Context, postID uuid.UUID, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyContent
	}
	if len(text) > MaxCommentLength {
		return nil, ErrContentTooLong
	}

	comment, err := m.backend.AddComment(ctx, postID, text)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if cached, ok := m.comments[postID]; ok {
		cached = append(cached, *comment)
		sort.SliceStable(cached, func(i, j int) bool {
			return cached[i].CreatedAt.Before(cached[j].CreatedAt)
		})
		m.comments[postID] = cached
	}
	m.mu.Unlock()

	m.feed.mutate(postID, func(p *Post) {
		p.CommentCount++
	})
	return comment, nil
}

// EditPost updates a post's content. The identity guard (session subject
// equals author) is a UX shortcut; the backend enforces ownership for
// real.
func (m *InteractionManager) EditPost(ctx context.Context, postID uuid.UUID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxPostLength {
		return ErrContentTooLong
	}
	if err := m.guardOwnership(postID); err != nil {
		return err
	}

	fresh, err := m.backend.EditPost(ctx, postID, content)
	if err != nil {
		return err
	}

	m.feed.mutate(postID, func(p *Post) {
		p.Content = fresh.Content
		p.UpdatedAt = fresh.UpdatedAt
	})
	return nil
}

// DeletePost removes a post after the ownership guard, dropping it from
// the local list and the comment cache.
func (m *InteractionManager) DeletePost(ctx context.Context, postID uuid.UUID) error {
	if err := m.guardOwnership(postID); err != nil {
		return err
	}

	if err := m.backend.DeletePost(ctx, postID); err != nil {
		return err
	}

	m.feed.remove(postID)
	m.mu.Lock()
	delete(m.comments, postID)
	m.mu.Unlock()
	return nil
}

func (m *InteractionManager) guardOwnership(postID uuid.UUID) error {
	post, ok := m.feed.Get(postID)
	if !ok {
		return ErrNotFound
	}
	session, ok := m.sessions.Current()
	if !ok {
		return ErrUnauthorized
	}
	if post.AuthorID != session.AccountID {
		return ErrForbidden
	}
	return nil
}
