package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/service"
)

const (
	ctxUser   = "user"
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

// SessionGuard admits requests carrying a valid access token, either in the
// accessToken cookie or as a Bearer token, and stores the user in the context.
func SessionGuard(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := authService.Authenticate(c.Request.Context(), accessToken(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxUserID, user.ID)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

// currentUserID returns the id stored by SessionGuard.
func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func currentClaims(c *gin.Context) *domain.TokenClaims {
	claims, _ := c.Get(ctxClaims)
	tc, _ := claims.(*domain.TokenClaims)
	return tc
}
