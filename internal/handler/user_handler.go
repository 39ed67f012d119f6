package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/config"
	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
	"github.com/prperemyshlev/videotube/internal/service"
)

// UserHandler handles account and channel requests
type UserHandler struct {
	userService service.UserService
	uploads     config.UploadConfig
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, uploads config.UploadConfig) *UserHandler {
	return &UserHandler{userService: userService, uploads: uploads}
}

// CurrentUser returns the authenticated user
func (h *UserHandler) CurrentUser(c *gin.Context) {
	user, err := h.userService.GetCurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount changes fullname and email
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.NewValidationError("invalid request body", err.Error()))
		return
	}

	user, err := h.userService.UpdateAccount(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar replaces the avatar with the uploaded file
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.userService.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage replaces the cover image with the uploaded file
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.userService.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(c *gin.Context, field string, update func(context.Context, string, string) (*domain.User, error), message string) {
	path, cleanup, err := stageUpload(c, field, h.uploads)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer cleanup()

	user, err := update(c.Request.Context(), currentUserID(c), path)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, message)
}

// ChannelProfile returns the channel view of :username for the caller
func (h *UserHandler) ChannelProfile(c *gin.Context) {
	profile, err := h.userService.GetChannelProfile(c.Request.Context(), c.Param("username"), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory returns the caller's watch history
func (h *UserHandler) WatchHistory(c *gin.Context) {
	history, err := h.userService.GetWatchHistory(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, history, "Watch history fetched successfully")
}

// AddToWatchHistory records :videoId as watched
func (h *UserHandler) AddToWatchHistory(c *gin.Context) {
	history, err := h.userService.AddToWatchHistory(c.Request.Context(), currentUserID(c), c.Param("videoId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, history, "Watch history updated")
}
