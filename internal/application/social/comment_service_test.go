package social

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/domain/social"
)

func newTestCommentService() (*CommentService, *MockCommentRepository, *MockPostRepository, *MockProfileRepository, *recordingPublisher) {
	mockCommentRepo := new(MockCommentRepository)
	mockPostRepo := new(MockPostRepository)
	mockProfileRepo := new(MockProfileRepository)
	publisher := &recordingPublisher{}
	service := NewCommentService(mockCommentRepo, mockPostRepo, mockProfileRepo, nil, publisher, zap.NewNop())
	return service, mockCommentRepo, mockPostRepo, mockProfileRepo, publisher
}

func TestCommentService_AddComment_Success(t *testing.T) {
	service, mockCommentRepo, mockPostRepo, mockProfileRepo, publisher := newTestCommentService()
	ctx := context.Background()
	authorID := newAuthorID()
	post := createPost(t, authorID, "discuss")

	mockPostRepo.On("FindByID", ctx, post.ID).Return(post, nil)
	mockCommentRepo.On("Create", ctx, mock.AnythingOfType("*social.Comment")).Return(nil)
	mockProfileRepo.On("FindByAccountID", ctx, authorID).Return(createAuthorProfile(authorID), nil)

	result, err := service.AddComment(ctx, authorID, post.ID, AddCommentInput{Content: "  nice post  "})

	require.NoError(t, err)
	assert.Equal(t, "nice post", result.Content)
	assert.Equal(t, post.ID, result.PostID)
	assert.Equal(t, []string{social.EventTypeCommentAdded}, publisher.eventTypes())
}

func TestCommentService_AddComment_UnknownPost(t *testing.T) {
	service, mockCommentRepo, mockPostRepo, _, _ := newTestCommentService()
	ctx := context.Background()
	postID := uuid.New()

	mockPostRepo.On("FindByID", ctx, postID).Return(nil, shared.ErrNotFound)

	_, err := service.AddComment(ctx, uuid.New(), postID, AddCommentInput{Content: "hello"})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "POST_NOT_FOUND", domainErr.Code)
	mockCommentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCommentService_AddComment_TooLong(t *testing.T) {
	service, _, mockPostRepo, _, _ := newTestCommentService()
	ctx := context.Background()
	authorID := newAuthorID()
	post := createPost(t, authorID, "discuss")

	mockPostRepo.On("FindByID", ctx, post.ID).Return(post, nil)

	_, err := service.AddComment(ctx, authorID, post.ID, AddCommentInput{
		Content: strings.Repeat("x", social.MaxCommentLength+1),
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "COMMENT_TOO_LONG", domainErr.Code)
}

func TestCommentService_ListComments_OldestFirst(t *testing.T) {
	service, mockCommentRepo, mockPostRepo, mockProfileRepo, _ := newTestCommentService()
	ctx := context.Background()
	authorID := newAuthorID()
	post := createPost(t, authorID, "discuss")

	first, err := social.NewComment(post.ID, authorID, "first")
	require.NoError(t, err)
	second, err := social.NewComment(post.ID, authorID, "second")
	require.NoError(t, err)

	mockPostRepo.On("FindByID", ctx, post.ID).Return(post, nil)
	mockCommentRepo.On("FindByPostID", ctx, post.ID).Return([]*social.Comment{first, second}, nil)
	mockProfileRepo.On("FindByAccountID", ctx, authorID).Return(createAuthorProfile(authorID), nil).Once()

	result, err := service.ListComments(ctx, post.ID)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "first", result[0].Content)
	assert.Equal(t, "second", result[1].Content)
	mockProfileRepo.AssertNumberOfCalls(t, "FindByAccountID", 1)
}

func TestCommentService_DeleteComment_AuthorOnly(t *testing.T) {
	service, mockCommentRepo, _, _, publisher := newTestCommentService()
	ctx := context.Background()
	authorID := newAuthorID()
	comment, err := social.NewComment(uuid.New(), authorID, "mine")
	require.NoError(t, err)

	mockCommentRepo.On("FindByID", ctx, comment.ID).Return(comment, nil)

	err = service.DeleteComment(ctx, uuid.New(), comment.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_COMMENT_AUTHOR", domainErr.Code)
	assert.Empty(t, publisher.events)
}

func TestCommentService_DeleteComment_Success(t *testing.T) {
	service, mockCommentRepo, mockPostRepo, _, publisher := newTestCommentService()
	ctx := context.Background()
	authorID := newAuthorID()
	post := createPost(t, authorID, "discuss")
	comment, err := social.NewComment(post.ID, authorID, "mine")
	require.NoError(t, err)

	mockCommentRepo.On("FindByID", ctx, comment.ID).Return(comment, nil)
	mockCommentRepo.On("Delete", ctx, comment.ID).Return(nil)
	mockPostRepo.On("FindByID", ctx, post.ID).Return(post, nil)

	err = service.DeleteComment(ctx, authorID, comment.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{social.EventTypeCommentDeleted}, publisher.eventTypes())
}
