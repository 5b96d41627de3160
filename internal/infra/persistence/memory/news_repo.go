package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

type newsRepo struct {
	mu   sync.RWMutex
	news map[string]*model.News
}

// NewNewsRepository 创建内存版公告仓储
func NewNewsRepository() repository.NewsRepository {
	return &newsRepo{news: make(map[string]*model.News)}
}

func (r *newsRepo) Create(ctx context.Context, news *model.News) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if news.Type == constant.NewsTypeBirthday {
		for _, n := range r.news {
			if n.Type == constant.NewsTypeBirthday && n.CharacterID == news.CharacterID && n.BirthdayDay == news.BirthdayDay {
				return fmt.Errorf("角色 %s 在 %s 的生日公告已存在: %w", news.CharacterID, news.BirthdayDay, constant.ErrConflict)
			}
		}
	}
	if news.ID == "" {
		news.ID = uuid.NewString()
	}
	stored := *news
	stored.Tags = append([]string(nil), news.Tags...)
	r.news[news.ID] = &stored
	return nil
}

func (r *newsRepo) ExistsBirthday(ctx context.Context, characterID string, start, end time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.news {
		if n.Type != constant.NewsTypeBirthday || n.CharacterID != characterID {
			continue
		}
		if !n.CreatedAt.Before(start) && n.CreatedAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *newsRepo) FindByID(ctx context.Context, id string) (*model.News, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.news[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (r *newsRepo) List(ctx context.Context, query model.NewsListQuery) ([]*model.News, int64, error) {
	r.mu.RLock()
	var matched []*model.News
	for _, n := range r.news {
		if query.PublishedOnly && !n.IsPublished {
			continue
		}
		if query.Type != "" && n.Type != query.Type {
			continue
		}
		copied := *n
		matched = append(matched, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (query.Page - 1) * query.PageSize
	if start >= len(matched) {
		return []*model.News{}, total, nil
	}
	end := start + query.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *newsRepo) IncrementViews(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.news[id]
	if !ok {
		return constant.ErrNotFound
	}
	n.Views++
	return nil
}

func (r *newsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.news[id]; !ok {
		return constant.ErrNotFound
	}
	delete(r.news, id)
	return nil
}
