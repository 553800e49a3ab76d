package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
)

const (
	headerRefreshToken = "X-Refresh-Token"
	cookieRefreshToken = "refresh_token"
)

// AttachRequestContext gives every request a RequestData carrying the
// refresh token, if the client sent one. RequireAuth replaces it with the
// authenticated identity.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{}
		if tok := strings.TrimSpace(c.GetHeader(headerRefreshToken)); tok != "" {
			rd.RefreshToken = tok
		} else if tok, err := c.Cookie(cookieRefreshToken); err == nil {
			rd.RefreshToken = strings.TrimSpace(tok)
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
