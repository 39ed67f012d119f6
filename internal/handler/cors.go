package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/config"
)

// CORSMiddleware allows credentialed requests from the configured origins.
// Cookies carry the session, so a wildcard origin is echoed back rather than
// sent as "*".
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	allowMethods := strings.Join(cfg.AllowedMethods, ", ")
	wildcard := slices.Contains(cfg.AllowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		if origin != "" && (wildcard || slices.Contains(cfg.AllowedOrigins, origin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			c.Writer.Header().Set("Access-Control-Allow-Methods", allowMethods)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
