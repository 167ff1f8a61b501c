package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	profileapp "github.com/scholarconnect/backend/internal/application/profile"
	"github.com/scholarconnect/backend/internal/interfaces/http/middleware"
)

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	BaseHandler
	profileService *profileapp.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profileapp.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get returns the authenticated student's profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.GetByAccountID(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Ensure creates the minimal profile row for the caller if it does not
// exist yet. Idempotent: a concurrent create or an existing row both
// return the profile without error.
func (h *ProfileHandler) Ensure(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.EnsureProfile(c.Request.Context(), userID, middleware.GetJWTEmail(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Complete fills in the student's details
func (h *ProfileHandler) Complete(c *gin.Context) {
	var req profileapp.CompleteProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.Complete(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Skip marks onboarding as skipped
func (h *ProfileHandler) Skip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.Skip(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RequestAvatarUpload returns a presigned URL for an avatar upload
func (h *ProfileHandler) RequestAvatarUpload(c *gin.Context) {
	var req profileapp.RequestAvatarUploadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.RequestAvatarUpload(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ConfirmAvatar activates an uploaded avatar
func (h *ProfileHandler) ConfirmAvatar(c *gin.Context) {
	var req profileapp.ConfirmAvatarInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.ConfirmAvatar(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RemoveAvatar deletes the current avatar
func (h *ProfileHandler) RemoveAvatar(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.profileService.RemoveAvatar(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetDisplay returns another student's public display info
func (h *ProfileHandler) GetDisplay(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID")
		return
	}

	result, err := h.profileService.GetDisplay(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers profile routes
func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	profile := rg.Group("/profile")
	{
		profile.GET("", h.Get)
		profile.POST("", h.Ensure)
		profile.PUT("", h.Complete)
		profile.POST("/skip", h.Skip)
		profile.POST("/avatar/upload-url", h.RequestAvatarUpload)
		profile.POST("/avatar/confirm", h.ConfirmAvatar)
		profile.DELETE("/avatar", h.RemoveAvatar)
	}

	rg.GET("/users/:id/display", h.GetDisplay)
}
