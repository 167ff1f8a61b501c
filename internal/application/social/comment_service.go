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

// CommentService handles comment operations
type CommentService struct {
	commentRepo    social.CommentRepository
	postRepo       social.PostRepository
	profileRepo    profile.Repository
	avatarResolver AvatarURLResolver
	eventPublisher shared.EventPublisher
	avatarExpiry   time.Duration
	logger         *zap.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(
	commentRepo social.CommentRepository,
	postRepo social.PostRepository,
	profileRepo profile.Repository,
	avatarResolver AvatarURLResolver,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		commentRepo:    commentRepo,
		postRepo:       postRepo,
		profileRepo:    profileRepo,
		avatarResolver: avatarResolver,
		eventPublisher: eventPublisher,
		avatarExpiry:   1 * time.Hour,
		logger:         logger,
	}
}

// ListComments returns a post's comments, oldest first, with author
// display fields joined in.
func (s *CommentService) ListComments(ctx context.Context, postID uuid.UUID) ([]CommentResponse, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return nil, err
	}

	comments, err := s.commentRepo.FindByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.avatarExpiry, s.logger)
	responses := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		responses = append(responses, toCommentResponse(c, authors.resolve(ctx, c.AuthorID)))
	}

	return responses, nil
}

// AddComment attaches a comment to a post. The comment row and the
// post's comment counter are written in one transaction by the repository.
func (s *CommentService) AddComment(ctx context.Context, authorID, postID uuid.UUID, input AddCommentInput) (*CommentResponse, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("POST_NOT_FOUND", "Post not found")
		}
		return nil, err
	}

	comment, err := social.NewComment(postID, authorID, input.Content)
	if err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Reload for the authoritative counter value
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, social.NewCommentAddedEvent(post, comment))
	}

	s.logger.Info("Comment added",
		zap.String("comment_id", comment.ID.String()),
		zap.String("post_id", postID.String()))

	authors := newAuthorCache(s.profileRepo, s.avatarResolver, s.avatarExpiry, s.logger)
	resp := toCommentResponse(comment, authors.resolve(ctx, authorID))
	return &resp, nil
}

// DeleteComment removes a comment. Author-only.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("COMMENT_NOT_FOUND", "Comment not found")
		}
		return err
	}

	if !comment.CanDelete(userID) {
		return shared.NewDomainError("NOT_COMMENT_AUTHOR", "Only the author can delete this comment")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	post, err := s.postRepo.FindByID(ctx, comment.PostID)
	if err == nil && s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, social.NewCommentDeletedEvent(post, commentID))
	}

	s.logger.Info("Comment deleted",
		zap.String("comment_id", commentID.String()),
		zap.String("post_id", comment.PostID.String()))

	return nil
}
