package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/internal/app/middleware"
	"github.com/paimon-guide/guide-app/internal/infra/persistence/memory"
	"github.com/paimon-guide/guide-app/internal/pkg/auth"
	analytics_handler "github.com/paimon-guide/guide-app/pkg/handler/analytics"
	news_handler "github.com/paimon-guide/guide-app/pkg/handler/news"
	"github.com/paimon-guide/guide-app/pkg/service/analytics"
	"github.com/paimon-guide/guide-app/pkg/service/news"
	"github.com/paimon-guide/guide-app/pkg/service/utility"
)

const secret = "router-secret"

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	events := memory.NewAnalyticsEventRepository()
	sessions := memory.NewSessionRepository()
	newsRepo := memory.NewNewsRepository()
	chars := memory.NewCharacterRepository()
	cache := utility.NewMemoryCacheService()

	ah := analytics_handler.NewHandler(
		analytics.NewIngestService(events, sessions, cache, nil, nil, analytics.IngestOptions{}),
		analytics.NewStatsService(events, cache, analytics.StatsOptions{}),
		analytics.NewResetService(events, sessions, nil, nil),
	)
	nh := news_handler.NewHandler(
		news.NewNewsService(newsRepo, chars, nil, ""),
		news.NewBirthdayService(chars, newsRepo, cache, nil, news.BirthdayOptions{}),
		nil,
	)

	engine := gin.New()
	NewRouter(ah, nh, middleware.NewMiddleware(secret, "guide-app"), Options{IngestRPM: 600, IngestBurst: 10}).Setup(engine)
	return engine
}

func TestRoutes(t *testing.T) {
	engine := newTestEngine(t)
	adminToken, err := auth.GenerateToken("ops", auth.RoleAdmin, "guide-app", time.Hour, []byte(secret))
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		token      string
		wantStatus int
	}{
		{"健康检查", http.MethodGet, "/api/ping", "", "", http.StatusOK},
		{"公开上报无需登录", http.MethodPost, "/api/public/analytics/track",
			`{"sessionId":"s1","page":"/","pageType":"home","deviceCategory":"desktop","region":"asia","visitDate":"2024-05-01"}`, "", http.StatusOK},
		{"公告列表公开", http.MethodGet, "/api/public/news", "", "", http.StatusOK},
		{"统计报表需要登录", http.MethodGet, "/api/analytics/stats", "", "", http.StatusUnauthorized},
		{"管理员查看统计报表", http.MethodGet, "/api/analytics/stats?range=30d", "", adminToken, http.StatusOK},
		{"重置需要登录", http.MethodPost, "/api/analytics/reset", `{"resetType":"all","confirmReset":true}`, "", http.StatusUnauthorized},
		{"管理员预演生日检查", http.MethodGet, "/api/news/birthday-check", "", adminToken, http.StatusOK},
		{"管理员执行生日检查", http.MethodPost, "/api/news/birthday-check", "", adminToken, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tc.wantStatus, w.Body.String())
			}
			if got := w.Header().Get("Cache-Control"); !strings.HasPrefix(got, "no-cache") {
				t.Errorf("Cache-Control = %q, want no-cache", got)
			}
		})
	}
}
