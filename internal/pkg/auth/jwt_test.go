package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("ops", RoleAdmin, "guide-app", time.Hour, secret)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	testCases := []struct {
		name    string
		token   string
		issuer  string
		secret  []byte
		wantErr bool
	}{
		{"正确的密钥与签发者", token, "guide-app", secret, false},
		{"不校验签发者", token, "", secret, false},
		{"签发者不一致", token, "other-app", secret, true},
		{"密钥错误", token, "guide-app", []byte("wrong"), true},
		{"格式错误", "not-a-token", "guide-app", secret, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := ParseToken(tc.token, tc.issuer, tc.secret)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseToken() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && (!claims.IsAdmin() || claims.UserID != "ops") {
				t.Errorf("claims = %+v, want admin ops", claims)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("ops", RoleAdmin, "guide-app", -time.Minute, secret)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := ParseToken(token, "guide-app", secret); err == nil {
		t.Error("过期令牌应当解析失败")
	}
}

func TestEmptySecret(t *testing.T) {
	if _, err := GenerateToken("ops", RoleAdmin, "", time.Hour, nil); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("GenerateToken() error = %v, want ErrEmptySecret", err)
	}
	if _, err := ParseToken("x", "", nil); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("ParseToken() error = %v, want ErrEmptySecret", err)
	}
}

func TestIsAdmin(t *testing.T) {
	var nilClaims *CustomClaims
	if nilClaims.IsAdmin() {
		t.Error("nil claims 不应是管理员")
	}
	if (&CustomClaims{Role: "editor"}).IsAdmin() {
		t.Error("editor 不应是管理员")
	}
}
