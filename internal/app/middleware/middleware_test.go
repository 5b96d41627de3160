package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/internal/pkg/auth"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAdminEngine(m *Middleware) *gin.Engine {
	r := gin.New()
	r.GET("/api/admin", m.JWTAuth(), m.AdminAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func mustToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	token, err := auth.GenerateToken("ops", role, "guide-app", ttl, []byte(testSecret))
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func TestAdminRoutes(t *testing.T) {
	testCases := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{"管理员令牌通过", testSecret, "Bearer " + mustToken(t, auth.RoleAdmin, time.Hour), http.StatusOK},
		{"缺少令牌", testSecret, "", http.StatusUnauthorized},
		{"格式不是 Bearer", testSecret, "Token abc", http.StatusUnauthorized},
		{"令牌已过期", testSecret, "Bearer " + mustToken(t, auth.RoleAdmin, -time.Minute), http.StatusUnauthorized},
		{"非管理员角色", testSecret, "Bearer " + mustToken(t, "viewer", time.Hour), http.StatusForbidden},
		{"服务端未配置密钥", "", "Bearer " + mustToken(t, auth.RoleAdmin, time.Hour), http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAdminEngine(NewMiddleware(tc.secret, "guide-app"))
			req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestCustomRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/api/track", CustomRateLimit(60, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/track", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("203.0.113.1"); code != http.StatusOK {
			t.Fatalf("第 %d 次请求 status = %d, want 200", i+1, code)
		}
	}
	if code := send("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("超出突发额度 status = %d, want 429", code)
	}
	if code := send("203.0.113.2"); code != http.StatusOK {
		t.Errorf("其他IP status = %d, want 200", code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	l := newIPRateLimiter(60, 1)
	l.getLimiter("198.51.100.7")
	l.cleanup(time.Now().Add(staleAfter + time.Second))
	if len(l.limiters) != 0 {
		t.Errorf("过期限流器未被回收: %d", len(l.limiters))
	}
}

func TestCorsPreflight(t *testing.T) {
	r := gin.New()
	r.Use(Cors())
	r.POST("/api/public/analytics/track", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/public/analytics/track", nil)
	req.Header.Set("Origin", "https://guide.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://guide.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
