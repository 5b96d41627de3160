package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/memory"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
	"github.com/paimon-guide/guide-app/pkg/service/analytics"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type handlerEnv struct {
	engine   *gin.Engine
	events   repository.AnalyticsEventRepository
	sessions repository.SessionRepository
}

func newHandlerEnv() *handlerEnv {
	gin.SetMode(gin.TestMode)
	events := memory.NewAnalyticsEventRepository()
	sessions := memory.NewSessionRepository()

	h := NewHandler(
		analytics.NewIngestService(events, sessions, nil, nil, nil, analytics.IngestOptions{AdminPathPrefix: "/admin"}),
		analytics.NewStatsService(events, nil, analytics.StatsOptions{AdminPathPrefix: "/admin"}),
		analytics.NewResetService(events, sessions, nil, nil),
	)

	r := gin.New()
	r.POST("/api/public/analytics/track", h.Track)
	r.GET("/api/analytics/stats", h.GetStats)
	r.POST("/api/analytics/reset", h.Reset)
	return &handlerEnv{engine: r, events: events, sessions: sessions}
}

func (e *handlerEnv) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("响应不是合法 JSON: %v, body = %s", err, w.Body.String())
	}
	return w.Code, env
}

func (e *handlerEnv) eventCount(t *testing.T) int64 {
	t.Helper()
	totals, err := e.events.Totals(context.Background(), model.EventFilter{})
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	return totals.Events
}

const trackBody = `{"sessionId":"s-1","page":"/characters/nahida","pageType":"character",` +
	`"deviceCategory":"mobile","region":"europe","visitDate":"2024-05-01"}`

func TestTrack(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		wantStatus   int
		wantEvents   int64
		wantRecorded bool
	}{
		{"完整的访问事件", trackBody, http.StatusOK, 1, true},
		{"缺少 sessionId", `{"page":"/","pageType":"home","deviceCategory":"mobile","region":"asia","visitDate":"2024-05-01"}`, http.StatusBadRequest, 0, false},
		{"缺少 visitDate", `{"sessionId":"s-1","page":"/","pageType":"home","deviceCategory":"mobile","region":"asia"}`, http.StatusBadRequest, 0, false},
		{"后台路径被静默排除", `{"sessionId":"s-1","page":"/admin/stats","pageType":"other","deviceCategory":"desktop","region":"asia","visitDate":"2024-05-01"}`, http.StatusOK, 0, false},
		{"非法 JSON", `{"sessionId":`, http.StatusBadRequest, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newHandlerEnv()
			status, body := env.do(t, http.MethodPost, "/api/public/analytics/track", tc.body)

			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d, message = %s", status, tc.wantStatus, body.Message)
			}
			if got := env.eventCount(t); got != tc.wantEvents {
				t.Errorf("事件数 = %d, want %d", got, tc.wantEvents)
			}
			if status != http.StatusOK {
				return
			}
			var result model.IngestResult
			if err := json.Unmarshal(body.Data, &result); err != nil {
				t.Fatalf("解析 data 失败: %v", err)
			}
			if result.Recorded != tc.wantRecorded {
				t.Errorf("recorded = %v, want %v", result.Recorded, tc.wantRecorded)
			}
		})
	}
}

func TestTrackReportsNewSession(t *testing.T) {
	env := newHandlerEnv()

	for i, want := range []bool{true, false} {
		_, body := env.do(t, http.MethodPost, "/api/public/analytics/track", trackBody)
		var result model.IngestResult
		if err := json.Unmarshal(body.Data, &result); err != nil {
			t.Fatalf("解析 data 失败: %v", err)
		}
		if result.NewSession != want {
			t.Errorf("第 %d 次上报 newSession = %v, want %v", i+1, result.NewSession, want)
		}
	}

	s, err := env.sessions.FindByID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if s.VisitCount != 2 || !s.IsReturning {
		t.Errorf("session = %+v, want visitCount 2 且为回访", s)
	}
}

func TestGetStats(t *testing.T) {
	env := newHandlerEnv()
	env.do(t, http.MethodPost, "/api/public/analytics/track", trackBody)

	t.Run("无效的时间范围", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/api/analytics/stats?range=2w", "")
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("全部时间范围", func(t *testing.T) {
		status, body := env.do(t, http.MethodGet, "/api/analytics/stats?range=all", "")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200, message = %s", status, body.Message)
		}
		var report model.StatsReport
		if err := json.Unmarshal(body.Data, &report); err != nil {
			t.Fatalf("解析 data 失败: %v", err)
		}
		if report.Totals.TotalEvents != 1 || report.Totals.UniqueVisitors != 1 {
			t.Errorf("totals = %+v, want 1 event / 1 visitor", report.Totals)
		}
	})
}

func TestReset(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantEvents int64
	}{
		{"未确认时拒绝执行", `{"resetType":"all"}`, http.StatusBadRequest, 1},
		{"未知的重置模式", `{"resetType":"everything","confirmReset":true}`, http.StatusBadRequest, 1},
		{"保留天数非法", `{"resetType":"old","daysToKeep":-3,"confirmReset":true}`, http.StatusBadRequest, 1},
		{"old 模式不删除新数据", `{"resetType":"old","daysToKeep":30,"confirmReset":true}`, http.StatusOK, 1},
		{"all 模式清空", `{"resetType":"all","confirmReset":true}`, http.StatusOK, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newHandlerEnv()
			env.do(t, http.MethodPost, "/api/public/analytics/track", trackBody)

			status, body := env.do(t, http.MethodPost, "/api/analytics/reset", tc.body)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d, message = %s", status, tc.wantStatus, body.Message)
			}
			if got := env.eventCount(t); got != tc.wantEvents {
				t.Errorf("剩余事件数 = %d, want %d", got, tc.wantEvents)
			}
		})
	}
}
