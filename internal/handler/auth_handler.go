package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/config"
	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
	"github.com/prperemyshlev/videotube/internal/service"
)

// AuthHandler handles registration and session requests
type AuthHandler struct {
	authService   service.AuthService
	uploads       config.UploadConfig
	secureCookies bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, uploads config.UploadConfig, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		uploads:       uploads,
		secureCookies: secureCookies,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(domain.NewValidationError("invalid registration form", err.Error()))
		return
	}

	avatarPath, cleanupAvatar, err := stageUpload(c, "avatar", h.uploads)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer cleanupAvatar()

	coverPath, cleanupCover, err := stageUpload(c, "coverImage", h.uploads)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer cleanupCover()

	req.AvatarPath = avatarPath
	req.CoverImagePath = coverPath

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login handles user login
// @Summary Login by username or email
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	setAuthCookies(c, result, h.secureCookies)
	respond(c, http.StatusOK, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// Refresh handles token refresh. The refresh token comes from the cookie or,
// for non-browser clients, the JSON body.
// @Summary Rotate the token pair
// @Tags users
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshTokenCookie)
	if refreshToken == "" {
		var req dto.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			_ = c.Error(domain.NewValidationError("invalid request body", err.Error()))
			return
		}
		refreshToken = req.RefreshToken
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	setAuthCookies(c, result, h.secureCookies)
	respond(c, http.StatusOK, dto.AuthResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "Access token refreshed")
}

// Logout handles user logout
// @Summary Logout user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), currentUserID(c), currentClaims(c)); err != nil {
		_ = c.Error(err)
		return
	}

	clearAuthCookies(c, h.secureCookies)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

// ChangePassword handles password changes
// @Summary Change password
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /users/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.NewValidationError("invalid request body", err.Error()))
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), currentUserID(c), &req); err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}
