package repository

import (
	"context"
	"time"

	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

// NewsRepository 公告仓储接口
type NewsRepository interface {
	// Create 创建公告；违反生日公告唯一约束时返回 constant.ErrConflict
	Create(ctx context.Context, news *model.News) error

	// ExistsBirthday 判断某角色在 [start, end) 内是否已有生日公告
	ExistsBirthday(ctx context.Context, characterID string, start, end time.Time) (bool, error)

	// FindByID 按ID查询，不存在时返回 constant.ErrNotFound
	FindByID(ctx context.Context, id string) (*model.News, error)

	// List 分页查询，按发布时间倒序
	List(ctx context.Context, query model.NewsListQuery) ([]*model.News, int64, error)

	// IncrementViews 浏览量加一
	IncrementViews(ctx context.Context, id string) error

	// Delete 删除公告，不存在时返回 constant.ErrNotFound
	Delete(ctx context.Context, id string) error
}

// CharacterRepository 角色目录仓储接口
type CharacterRepository interface {
	// ListAll 返回全部角色
	ListAll(ctx context.Context) ([]*model.Character, error)

	// FindByID 按ID查询，不存在时返回 constant.ErrNotFound
	FindByID(ctx context.Context, id string) (*model.Character, error)

	// Count 角色数量
	Count(ctx context.Context) (int64, error)

	// InsertMany 批量写入，仅用于初始化种子数据
	InsertMany(ctx context.Context, characters []*model.Character) error
}
