package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader is the header carrying the admin API key
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyMiddleware guards the admin surface with a pre-shared API key,
// checked against its bcrypt hash. An empty hash disables the surface.
func AdminKeyMiddleware(keyHash string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access is not configured",
			})
			c.Abort()
			return
		}

		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Admin key is required",
			})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			logger.Warn("Rejected admin request with bad key",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Invalid admin key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
