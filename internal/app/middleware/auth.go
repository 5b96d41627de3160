// internal/app/middleware/auth.go
package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/internal/pkg/auth"
	"github.com/paimon-guide/guide-app/pkg/response"
)

// Middleware 持有校验管理员令牌所需的密钥
type Middleware struct {
	secret []byte
	issuer string
}

func NewMiddleware(secret, issuer string) *Middleware {
	return &Middleware{secret: []byte(secret), issuer: issuer}
}

// JWTAuth 是一个强制性的JWT认证中间件
func (m *Middleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(m.secret) == 0 {
			log.Printf("[JWTAuth] 未配置 JWT.Secret，拒绝所有需要认证的请求")
			response.Fail(c, http.StatusUnauthorized, "服务端未配置认证密钥")
			c.Abort()
			return
		}

		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			response.Fail(c, http.StatusUnauthorized, "请求未携带Token，无权限访问")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Fail(c, http.StatusUnauthorized, "Token格式不正确")
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1], m.issuer, m.secret)
		if err != nil {
			log.Printf("[JWTAuth] JWT token解析失败: %v", err)
			response.Fail(c, http.StatusUnauthorized, "无效或过期的Token")
			c.Abort()
			return
		}

		c.Set(auth.ClaimsKey, claims)
		c.Next()
	}
}

// AdminAuth 要求 JWTAuth 已通过且角色为管理员
func (m *Middleware) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(auth.ClaimsKey)
		if !exists {
			log.Printf("[AdminAuth] 上下文中没有找到认证信息: %s %s", c.Request.Method, c.Request.URL.Path)
			response.Fail(c, http.StatusForbidden, "权限信息获取失败")
			c.Abort()
			return
		}

		claims, ok := claimsValue.(*auth.CustomClaims)
		if !ok {
			response.Fail(c, http.StatusForbidden, "权限信息格式不正确")
			c.Abort()
			return
		}

		if !claims.IsAdmin() {
			log.Printf("[AdminAuth] 权限不足: UserID=%s Role=%s", claims.UserID, claims.Role)
			response.Fail(c, http.StatusForbidden, "权限不足：此操作需要管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}
