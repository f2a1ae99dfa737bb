package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const adminRole = "admin"

// 檢查是否有admin權限,沒有則中止請求
func CheckAdminPermissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("Role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "尚未登入",
			})
			c.Abort()
			return
		}
		if role != adminRole {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "沒有權限",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
