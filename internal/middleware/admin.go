package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/service/auth"
)

const adminKey = "is_admin"

// AdminMiddleware 管理员识别中间件
// 携带有效管理员令牌的请求标记为管理员，不拦截普通请求
func AdminMiddleware(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := adminToken(c); token != "" {
			if err := authSvc.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set(adminKey, true)
			}
		}
		c.Next()
	}
}

// RequireAdmin 要求管理员令牌的中间件
func RequireAdmin(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := adminToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    -1,
				"message": "Missing admin token",
			})
			c.Abort()
			return
		}
		if err := authSvc.ValidateToken(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(adminKey, true)
		c.Next()
	}
}

// IsAdmin 请求是否来自管理员
func IsAdmin(c *gin.Context) bool {
	isAdmin, exists := c.Get(adminKey)
	if !exists {
		return false
	}
	admin, ok := isAdmin.(bool)
	return ok && admin
}

// adminToken 从 Authorization 或 X-Admin-Key 头取令牌
func adminToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return strings.TrimSpace(c.GetHeader("X-Admin-Key"))
}
