// Package social implements the feed, like, and comment use cases.
package social

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/domain/profile"
	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/domain/social"
)

// MaxFeedPageSize bounds the feed page size; it is also the default.
const MaxFeedPageSize = 50

// AvatarURLResolver presigns download URLs for avatar objects. The
// profile avatar storage satisfies this.
type AvatarURLResolver interface {
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// PostServiceConfig holds configuration for the post service
type PostServiceConfig struct {
	// AvatarURLExpiry is the duration for which joined avatar URLs are valid
	AvatarURLExpiry time.Duration
}

// DefaultPostServiceConfig returns the default configuration
func DefaultPostServiceConfig() PostServiceConfig {
	return PostServiceConfig{
		AvatarURLExpiry: 1 * time.Hour,
	}
}

// PostService handles post and like operations
type PostService struct {
	postRepo       social.PostRepository
	profileRepo    profile.Repository
	avatarResolver AvatarURLResolver
	eventPublisher shared.EventPublisher
	config         PostServiceConfig
	logger         *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(
	postRepo social.PostRepository,
	profileRepo profile.Repository,
	avatarResolver AvatarURLResolver,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		postRepo:       postRepo,
		profileRepo:    profileRepo,
		avatarResolver: avatarResolver,
		eventPublisher: eventPublisher,
		config:         DefaultPostServiceConfig(),
		logger:         logger,
	}
}

// SetConfig sets the service configuration
func (s *PostService) SetConfig(config PostServiceConfig) {
	s.config = config
}

// GetFeed returns a page of the public feed, newest first, with author
// display fields joined in. When a viewer is given, each post carries
// whether that viewer has liked it.
func (s *PostService) GetFeed(ctx context.Context, viewerID *uuid.UUID, query FeedQuery) (*FeedResponse, error) {
	filter := social.NewPostFilter()
	if query.Limit > 0 && query.Limit < MaxFeedPageSize {
		filter.Limit = query.Limit
	}
	filter.Before = query.Before

	posts, err := s.postRepo.FindFeed(ctx, filter)
	if err != nil {
		return nil, err
	}

	liked := make(map[uuid.UUID]bool)
	if viewerID != nil && len(posts) > 0 {
		postIDs := make([]uuid.UUID, len(posts))
		for i, p := range posts {
			postIDs[i] = p.ID
		}
		likedIDs, err := s.postRepo.FindLikedPostIDs(ctx, *viewerID, postIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.config.AvatarURLExpiry, s.logger)
	responses := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, toPostResponse(p, authors.resolve(ctx, p.AuthorID), liked[p.ID]))
	}

	return &FeedResponse{Posts: responses}, nil
}

// GetPost retrieves a single post
func (s *PostService) GetPost(ctx context.Context, viewerID *uuid.UUID, postID uuid.UUID) (*PostResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return nil, err
	}

	likedByMe := false
	if viewerID != nil {
		likedByMe, err = s.postRepo.HasLike(ctx, postID, *viewerID)
		if err != nil {
			return nil, err
		}
	}

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.config.AvatarURLExpiry, s.logger)
	resp := toPostResponse(post, authors.resolve(ctx, post.AuthorID), likedByMe)
	return &resp, nil
}

// CreatePost creates a new public post for the author
func (s *PostService) CreatePost(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*PostResponse, error) {
	post, err := social.NewPost(authorID, input.Content)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, post)
	s.logger.Info("Post created",
		zap.String("post_id", post.ID.String()),
		zap.String("author_id", authorID.String()))

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.config.AvatarURLExpiry, s.logger)
	resp := toPostResponse(post, authors.resolve(ctx, authorID), false)
	return &resp, nil
}

// EditPost replaces the content of a post. Author-only.
func (s *PostService) EditPost(ctx context.Context, editorID, postID uuid.UUID, input EditPostInput) (*PostResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return nil, err
	}

	if err := post.Edit(editorID, input.Content); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, post)
	s.logger.Info("Post edited", zap.String("post_id", postID.String()))

	likedByMe, err := s.postRepo.HasLike(ctx, postID, editorID)
	if err != nil {
		likedByMe = false
	}

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.config.AvatarURLExpiry, s.logger)
	resp := toPostResponse(post, authors.resolve(ctx, post.AuthorID), likedByMe)
	return &resp, nil
}

// DeletePost removes a post together with its likes and comments.
// Author-only.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return err
	}

	if !post.CanDelete(userID) {
		return shared.NewDomainError("NOT_POST_AUTHOR", "Only the author can delete this post")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, social.NewPostDeletedEvent(post))
	}

	s.logger.Info("Post deleted",
		zap.String("post_id", postID.String()),
		zap.String("author_id", userID.String()))

	return nil
}

// LikePost records the viewer's like. Liking a post twice is an
// idempotent success: the like row and counter are unchanged and no
// event is emitted.
func (s *PostService) LikePost(ctx context.Context, userID, postID uuid.UUID) (*PostResponse, error) {
	added, err := s.postRepo.AddLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if added && s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, social.NewPostLikedEvent(post, userID))
	}

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.config.AvatarURLExpiry, s.logger)
	resp := toPostResponse(post, authors.resolve(ctx, post.AuthorID), true)
	return &resp, nil
}

// UnlikePost removes the viewer's like. Unliking a post that was never
// liked is an idempotent success.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uuid.UUID) (*PostResponse, error) {
	removed, err := s.postRepo.RemoveLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if removed && s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, social.NewPostUnlikedEvent(post, userID))
	}

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.config.AvatarURLExpiry, s.logger)
	resp := toPostResponse(post, authors.resolve(ctx, post.AuthorID), false)
	return &resp, nil
}

// publishDomainEvents publishes all domain events collected on the post
func (s *PostService) publishDomainEvents(ctx context.Context, post *social.Post) {
	if s.eventPublisher == nil {
		return
	}
	events := post.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	post.ClearDomainEvents()
}

// authorCache resolves author display fields once per request, no matter
// how many posts an author has on the page.
type authorCache struct {
	profileRepo    profile.Repository
	avatarResolver AvatarURLResolver
	avatarExpiry   time.Duration
	logger         *zap.Logger
	cache          map[uuid.UUID]AuthorInfo
}

func newAuthorCache(
	profileRepo profile.Repository,
	avatarResolver AvatarURLResolver,
	avatarExpiry time.Duration,
	logger *zap.Logger,
) *authorCache {
	return &authorCache{
		profileRepo:    profileRepo,
		avatarResolver: avatarResolver,
		avatarExpiry:   avatarExpiry,
		logger:         logger,
		cache:          make(map[uuid.UUID]AuthorInfo),
	}
}

// resolve returns the author display fields for an account. A missing
// profile degrades to an empty display name rather than failing the feed.
func (c *authorCache) resolve(ctx context.Context, accountID uuid.UUID) AuthorInfo {
	if info, ok := c.cache[accountID]; ok {
		return info
	}

	info := AuthorInfo{AccountID: accountID}
	p, err := c.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		c.logger.Warn("Failed to resolve post author",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		c.cache[accountID] = info
		return info
	}

	info.DisplayName = p.DisplayName()
	if p.AvatarKey != "" && c.avatarResolver != nil {
		url, _, err := c.avatarResolver.GenerateDownloadURL(ctx, p.AvatarKey, c.avatarExpiry)
		if err != nil {
			c.logger.Warn("Failed to presign author avatar URL",
				zap.String("account_id", accountID.String()),
				zap.Error(err))
		} else {
			info.AvatarURL = url
		}
	}

	c.cache[accountID] = info
	return info
}
