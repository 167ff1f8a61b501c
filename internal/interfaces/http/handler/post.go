package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	socialapp "github.com/scholarconnect/backend/internal/application/social"
	"github.com/scholarconnect/backend/internal/interfaces/http/middleware"
)

// PostHandler handles feed and post HTTP requests
type PostHandler struct {
	BaseHandler
	postService    *socialapp.PostService
	commentService *socialapp.CommentService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *socialapp.PostService, commentService *socialapp.CommentService) *PostHandler {
	return &PostHandler{
		postService:    postService,
		commentService: commentService,
	}
}

// feedQueryRequest binds the feed paging parameters
type feedQueryRequest struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
	Before string `form:"before" binding:"omitempty,uuid"`
}

// GetFeed returns the newest public posts
func (h *PostHandler) GetFeed(c *gin.Context) {
	var req feedQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	query := socialapp.FeedQuery{Limit: req.Limit}
	if req.Before != "" {
		before, err := uuid.Parse(req.Before)
		if err != nil {
			h.BadRequest(c, "Invalid cursor")
			return
		}
		query.Before = &before
	}

	result, err := h.postService.GetFeed(c.Request.Context(), &userID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetPost returns a single post
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.postService.GetPost(c.Request.Context(), &userID, postID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CreatePost publishes a new post
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req socialapp.CreatePostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.postService.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// EditPost updates a post's content. Only the author may edit.
func (h *PostHandler) EditPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	var req socialapp.EditPostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.postService.EditPost(c.Request.Context(), userID, postID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DeletePost removes a post. Only the author may delete.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), userID, postID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// LikePost records a like. Liking twice is a no-op.
func (h *PostHandler) LikePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.postService.LikePost(c.Request.Context(), userID, postID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UnlikePost removes a like. Unliking twice is a no-op.
func (h *PostHandler) UnlikePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.postService.UnlikePost(c.Request.Context(), userID, postID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListComments returns a post's comments oldest-first
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	result, err := h.commentService.ListComments(c.Request.Context(), postID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AddComment adds a comment to a post
func (h *PostHandler) AddComment(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid post ID")
		return
	}

	var req socialapp.AddCommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.commentService.AddComment(c.Request.Context(), userID, postID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// DeleteComment removes a comment. Only the comment author may delete.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("commentID"))
	if err != nil {
		h.BadRequest(c, "Invalid comment ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers post and comment routes
func (h *PostHandler) RegisterRoutes(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	{
		posts.GET("", h.GetFeed)
		posts.POST("", h.CreatePost)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", h.EditPost)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/:id/like", h.LikePost)
		posts.DELETE("/:id/like", h.UnlikePost)
		posts.GET("/:id/comments", h.ListComments)
		posts.POST("/:id/comments", h.AddComment)
		posts.DELETE("/:id/comments/:commentID", h.DeleteComment)
	}
}
