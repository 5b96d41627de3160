package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/paimon-guide/guide-app/pkg/constant"
)

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"参数错误", fmt.Errorf("%w: sessionId", constant.ErrBadRequest), http.StatusBadRequest},
		{"时间范围无效", constant.ErrInvalidRange, http.StatusBadRequest},
		{"未确认重置", constant.ErrResetNotConfirmed, http.StatusBadRequest},
		{"重置模式无效", fmt.Errorf("%w: \"x\"", constant.ErrInvalidResetType), http.StatusBadRequest},
		{"资源不存在", constant.ErrNotFound, http.StatusNotFound},
		{"任务执行中", fmt.Errorf("%w: %w", constant.ErrTaskRunning, constant.ErrConflict), http.StatusConflict},
		{"任务队列已满", constant.ErrQueueFull, http.StatusServiceUnavailable},
		{"存储错误", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(tc.err); got != tc.want {
				t.Errorf("StatusOf() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFailWithErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FailWithError(c, errors.New("mongo: dial tcp 10.0.0.3:27017"), "获取统计数据失败")

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if w.Code != http.StatusInternalServerError || body.Message != "获取统计数据失败" {
		t.Errorf("status = %d, message = %q", w.Code, body.Message)
	}
}
