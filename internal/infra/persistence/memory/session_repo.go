package memory

import (
	"context"
	"sync"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

type sessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.SessionSummary
}

// NewSessionRepository 创建内存版会话仓储
func NewSessionRepository() repository.SessionRepository {
	return &sessionRepo{sessions: make(map[string]*model.SessionSummary)}
}

// Upsert 在同一把锁内完成读改写，等价于 Mongo 的原子 upsert
func (r *sessionRepo) Upsert(ctx context.Context, t model.SessionTouch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[t.SessionID]
	if !exists {
		r.sessions[t.SessionID] = &model.SessionSummary{
			SessionID:       t.SessionID,
			FirstVisit:      t.At,
			LastVisit:       t.At,
			VisitCount:      1,
			PageViews:       1,
			TotalTimeOnSite: t.TimeOnPage,
			DeviceCategory:  t.DeviceCategory,
			Region:          t.Region,
			IsEngaged:       t.Engaged,
			LastPage:        t.Page,
			LastPageType:    t.PageType,
		}
		return true, nil
	}

	s.VisitCount++
	s.PageViews++
	s.TotalTimeOnSite += t.TimeOnPage
	s.IsReturning = true
	s.IsEngaged = s.IsEngaged || t.Engaged
	s.LastVisit = t.At
	s.LastPage = t.Page
	s.LastPageType = t.PageType
	s.DeviceCategory = t.DeviceCategory
	s.Region = t.Region
	return false, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, constant.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *sessionRepo) Delete(ctx context.Context, filter model.EventDeleteFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id := range r.sessions {
		if filter.All || (filter.TestTraffic && isTestSession(id)) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
