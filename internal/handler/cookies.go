package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/service"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

func setAuthCookies(c *gin.Context, result *service.AuthResult, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, result.Tokens.AccessToken, seconds(result.AccessTTL), "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, result.Tokens.RefreshToken, seconds(result.RefreshTTL), "/", "", secure, true)
}

func clearAuthCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", secure, true)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
