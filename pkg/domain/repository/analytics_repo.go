package repository

import (
	"context"
	"time"

	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

// AnalyticsEventRepository 访问事件仓储接口
type AnalyticsEventRepository interface {
	// Append 追加一条事件
	Append(ctx context.Context, event *model.AnalyticsEvent) error

	// Totals 计算过滤后的事件总量、独立会话数与均值
	Totals(ctx context.Context, filter model.EventFilter) (*model.EventTotals, error)

	// GroupBy 按维度分组统计浏览量与独立会话数，按浏览量降序，limit<=0 表示不截断
	GroupBy(ctx context.Context, filter model.EventFilter, dim model.EventDimension, limit int) ([]model.DimensionCount, error)

	// Remove 按ID删除单条事件，会话更新失败时用于回滚刚写入的事件
	Remove(ctx context.Context, id string) error

	// ScanBefore 按创建时间升序分批遍历早于 cutoff 的事件，用于归档；fn 返回错误时停止遍历
	ScanBefore(ctx context.Context, cutoff time.Time, batchSize int, fn func(batch []*model.AnalyticsEvent) error) error

	// Delete 按条件批量删除，返回删除数量
	Delete(ctx context.Context, filter model.EventDeleteFilter) (int64, error)
}

// SessionRepository 会话汇总仓储接口
type SessionRepository interface {
	// Upsert 原子地创建或累加会话汇总，created 表示本次是否新建
	Upsert(ctx context.Context, touch model.SessionTouch) (created bool, err error)

	// FindByID 按会话ID查询，不存在时返回 constant.ErrNotFound
	FindByID(ctx context.Context, sessionID string) (*model.SessionSummary, error)

	// Delete 按条件批量删除，CreatedBefore 条件对会话不生效
	Delete(ctx context.Context, filter model.EventDeleteFilter) (int64, error)
}
