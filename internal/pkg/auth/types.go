package auth

import "github.com/golang-jwt/jwt/v5"

// ClaimsKey 是 gin.Context 中存放已验证 Claims 的键。
const ClaimsKey = "user_claims"

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

// CustomClaims 定义了 JWT 的自定义 Claims 结构体
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin 判断令牌持有者是否为管理员
func (c *CustomClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
