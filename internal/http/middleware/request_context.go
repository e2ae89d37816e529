package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/asset-gallery-backend/internal/platform/ctxutil"
)

func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithClientData(c.Request.Context(), &ctxutil.ClientData{
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
