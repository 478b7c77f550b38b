package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminRequired lets the request through only when the supplied key equals
// adminKey exactly. The key may come from ?key= or the X-Admin-Key header.
func AdminRequired(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := c.GetQuery("key")
		if !ok {
			key = c.GetHeader(AdminKeyHeader)
		}

		if adminKey == "" || key != adminKey {
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}
