package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/observability"
)

const userIDKey = "userID"

// Identity trusts the X-User-ID header set by the upstream auth gateway.
// Requests without a positive numeric id are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(observability.HeaderUserID)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		userID, err := strconv.ParseInt(header, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity stored by Identity.
func UserID(c *gin.Context) (int64, bool) {
	val, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := val.(int64)
	return id, ok && id > 0
}
