package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret 未配置签名密钥
var ErrEmptySecret = errors.New("JWT Secret 不能为空")

// GenerateToken 签发一个 HS256 令牌，ttl 为有效期
func GenerateToken(userID, role, issuer string, ttl time.Duration, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseToken 解析并校验令牌；issuer 非空时要求签发者一致
func ParseToken(tokenStr, issuer string, secretKey []byte) (*CustomClaims, error) {
	if len(secretKey) == 0 {
		return nil, ErrEmptySecret
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("解析token失败: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("无效或过期Token")
	}
	return claims, nil
}
