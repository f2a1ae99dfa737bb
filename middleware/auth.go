package middleware

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"DriveDNA/jwt"
)

func AuthMiddleware(keys *jwt.Keys) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token == "" {
			c.Next()
			return
		}

		//如Token不合法或錯誤則視為未登入
		userID, role, err := keys.VerifyToken(token)
		if err != nil {
			log.Printf("無法驗證Token: %v", err)
			c.Next()
			return
		}

		c.Set("Token", token)
		c.Set("UserID", userID)
		c.Set("Role", role)
		c.Next()
	}
}
