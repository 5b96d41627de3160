package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/memory"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/service/news"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubBirthdayService struct {
	dryRuns []bool
	err     error
}

func (s *stubBirthdayService) Check(_ context.Context, dryRun bool) (*model.BirthdayCheckResult, error) {
	s.dryRuns = append(s.dryRuns, dryRun)
	if s.err != nil {
		return nil, s.err
	}
	return &model.BirthdayCheckResult{Date: "2024-06-26", DryRun: dryRun, Checked: 3, Matched: 1}, nil
}

type stubDispatcher struct {
	calls int
	err   error
}

func (d *stubDispatcher) DispatchBirthdayCheck() error {
	d.calls++
	return d.err
}

func newEngine(birthday news.BirthdayService) *gin.Engine {
	return newEngineWithDispatcher(birthday, nil)
}

func newEngineWithDispatcher(birthday news.BirthdayService, dispatcher BirthdayDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	newsSvc := news.NewNewsService(memory.NewNewsRepository(), memory.NewCharacterRepository(), nil, "")
	h := NewHandler(newsSvc, birthday, dispatcher)

	r := gin.New()
	r.GET("/api/public/news", h.List)
	r.GET("/api/public/news/:id", h.Get)
	r.POST("/api/news", h.Create)
	r.DELETE("/api/news/:id", h.Delete)
	r.GET("/api/news/birthday-check", h.BirthdayCheck)
	r.POST("/api/news/birthday-check", h.BirthdayCheck)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("响应不是合法 JSON: %v, body = %s", err, w.Body.String())
	}
	return w.Code, env
}

func TestBirthdayCheck(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		err        error
		wantStatus int
		wantDryRun bool
	}{
		{"GET 只预演", http.MethodGet, nil, http.StatusOK, true},
		{"POST 实际执行", http.MethodPost, nil, http.StatusOK, false},
		{"已有任务在执行", http.MethodPost, fmt.Errorf("%w: %w", constant.ErrTaskRunning, constant.ErrConflict), http.StatusConflict, false},
		{"读取角色失败", http.MethodPost, fmt.Errorf("读取角色目录失败: %w", context.DeadlineExceeded), http.StatusInternalServerError, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubBirthdayService{err: tc.err}
			status, body := do(t, newEngine(stub), tc.method, "/api/news/birthday-check", "")

			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d, message = %s", status, tc.wantStatus, body.Message)
			}
			if len(stub.dryRuns) != 1 || stub.dryRuns[0] != tc.wantDryRun {
				t.Errorf("dryRuns = %v, want [%v]", stub.dryRuns, tc.wantDryRun)
			}
			if status == http.StatusInternalServerError && body.Message != "生日检查失败" {
				t.Errorf("服务端错误不应泄露细节: %q", body.Message)
			}
		})
	}
}

func TestBirthdayCheckAsync(t *testing.T) {
	testCases := []struct {
		name          string
		method        string
		path          string
		dispatchErr   error
		wantStatus    int
		wantDispatch  int
		wantSyncCalls int
	}{
		{"POST 异步入队", http.MethodPost, "/api/news/birthday-check?async=true", nil, http.StatusAccepted, 1, 0},
		{"队列已满", http.MethodPost, "/api/news/birthday-check?async=true", constant.ErrQueueFull, http.StatusServiceUnavailable, 1, 0},
		{"GET 忽略 async 仍然预演", http.MethodGet, "/api/news/birthday-check?async=true", nil, http.StatusOK, 0, 1},
		{"未带 async 时同步执行", http.MethodPost, "/api/news/birthday-check", nil, http.StatusOK, 0, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubBirthdayService{}
			dispatcher := &stubDispatcher{err: tc.dispatchErr}
			status, body := do(t, newEngineWithDispatcher(stub, dispatcher), tc.method, tc.path, "")

			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d, message = %s", status, tc.wantStatus, body.Message)
			}
			if dispatcher.calls != tc.wantDispatch {
				t.Errorf("入队次数 = %d, want %d", dispatcher.calls, tc.wantDispatch)
			}
			if len(stub.dryRuns) != tc.wantSyncCalls {
				t.Errorf("同步执行次数 = %d, want %d", len(stub.dryRuns), tc.wantSyncCalls)
			}
		})
	}
}

func TestNewsLifecycle(t *testing.T) {
	r := newEngine(&stubBirthdayService{})

	status, body := do(t, r, http.MethodPost, "/api/news", `{"title":"版本前瞻","content":"**4.8** 版本即将上线","type":"update"}`)
	if status != http.StatusCreated {
		t.Fatalf("创建 status = %d, message = %s", status, body.Message)
	}
	var created model.News
	if err := json.Unmarshal(body.Data, &created); err != nil {
		t.Fatalf("解析 data 失败: %v", err)
	}
	if created.ID == "" {
		t.Fatal("创建的公告缺少 ID")
	}

	status, body = do(t, r, http.MethodGet, "/api/public/news?page=1&pageSize=5", "")
	if status != http.StatusOK {
		t.Fatalf("列表 status = %d", status)
	}
	var list model.NewsListResult
	if err := json.Unmarshal(body.Data, &list); err != nil {
		t.Fatalf("解析列表失败: %v", err)
	}
	if list.Total != 1 || len(list.List) != 1 {
		t.Errorf("列表 total = %d, len = %d, want 1", list.Total, len(list.List))
	}

	if status, _ = do(t, r, http.MethodGet, "/api/public/news/"+created.ID, ""); status != http.StatusOK {
		t.Errorf("详情 status = %d, want 200", status)
	}
	if status, _ = do(t, r, http.MethodDelete, "/api/news/"+created.ID, ""); status != http.StatusOK {
		t.Errorf("删除 status = %d, want 200", status)
	}
	if status, _ = do(t, r, http.MethodGet, "/api/public/news/"+created.ID, ""); status != http.StatusNotFound {
		t.Errorf("删除后详情 status = %d, want 404", status)
	}
	if status, _ = do(t, r, http.MethodDelete, "/api/news/"+created.ID, ""); status != http.StatusNotFound {
		t.Errorf("重复删除 status = %d, want 404", status)
	}
}

func TestCreateNewsValidation(t *testing.T) {
	r := newEngine(&stubBirthdayService{})

	testCases := []struct {
		name string
		body string
	}{
		{"缺少标题", `{"content":"正文"}`},
		{"缺少内容", `{"title":"标题"}`},
		{"非法 JSON", `{"title":`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if status, _ := do(t, r, http.MethodPost, "/api/news", tc.body); status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
		})
	}
}
