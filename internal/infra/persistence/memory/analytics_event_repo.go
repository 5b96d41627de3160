/*
 * @Description: 内存版访问事件仓储（未配置 MongoDB 时的降级方案）
 */
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

type analyticsEventRepo struct {
	mu     sync.RWMutex
	events []*model.AnalyticsEvent
}

// NewAnalyticsEventRepository 创建内存版事件仓储
func NewAnalyticsEventRepository() repository.AnalyticsEventRepository {
	return &analyticsEventRepo{}
}

func (r *analyticsEventRepo) Append(ctx context.Context, event *model.AnalyticsEvent) error {
	stored := *event
	r.mu.Lock()
	r.events = append(r.events, &stored)
	r.mu.Unlock()
	return nil
}

func (r *analyticsEventRepo) Totals(ctx context.Context, filter model.EventFilter) (*model.EventTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := &model.EventTotals{}
	sessions := make(map[string]struct{})
	var sumTime, sumLoad, bounces float64
	for _, e := range r.events {
		if !matchEvent(e, filter) {
			continue
		}
		totals.Events++
		sessions[e.SessionID] = struct{}{}
		sumTime += e.TimeOnPage
		sumLoad += e.LoadTime
		if e.Bounce {
			bounces++
		}
	}
	totals.Sessions = int64(len(sessions))
	if totals.Events > 0 {
		n := float64(totals.Events)
		totals.AvgTimeOnPage = sumTime / n
		totals.AvgLoadTime = sumLoad / n
		totals.BounceRatio = bounces / n
	}
	return totals, nil
}

type groupAcc struct {
	views    int64
	visitors map[string]struct{}
	value    float64
}

func (r *analyticsEventRepo) GroupBy(ctx context.Context, filter model.EventFilter, dim model.EventDimension, limit int) ([]model.DimensionCount, error) {
	r.mu.RLock()
	groups := make(map[string]*groupAcc)
	for _, e := range r.events {
		if !matchEvent(e, filter) {
			continue
		}
		key, ok := dimensionValue(e, dim)
		if !ok {
			continue
		}
		acc, exists := groups[key]
		if !exists {
			acc = &groupAcc{visitors: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.views++
		acc.visitors[e.SessionID] = struct{}{}
		acc.value += e.ConversionValue
	}
	r.mu.RUnlock()

	result := make([]model.DimensionCount, 0, len(groups))
	for key, acc := range groups {
		result = append(result, model.DimensionCount{
			Key:      key,
			Views:    acc.views,
			Visitors: int64(len(acc.visitors)),
			Value:    acc.value,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Views != result[j].Views {
			return result[i].Views > result[j].Views
		}
		return result[i].Key < result[j].Key
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *analyticsEventRepo) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.events {
		if e.ID == id {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return nil
		}
	}
	return constant.ErrNotFound
}

// ScanBefore 先在读锁内取出快照，回调在锁外执行，回调里可以安全地再访问仓储
func (r *analyticsEventRepo) ScanBefore(ctx context.Context, cutoff time.Time, batchSize int, fn func(batch []*model.AnalyticsEvent) error) error {
	r.mu.RLock()
	var matched []*model.AnalyticsEvent
	for _, e := range r.events {
		if e.CreatedAt.Before(cutoff) {
			copied := *e
			matched = append(matched, &copied)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	if batchSize <= 0 {
		batchSize = len(matched)
	}
	for start := 0; start < len(matched); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(matched))
		if err := fn(matched[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *analyticsEventRepo) Delete(ctx context.Context, filter model.EventDeleteFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var deleted int64
	for _, e := range r.events {
		if matchDelete(e, filter) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

func matchEvent(e *model.AnalyticsEvent, f model.EventFilter) bool {
	if f.ExcludePathPrefix != "" && strings.HasPrefix(e.PagePath, f.ExcludePathPrefix) {
		return false
	}
	if f.FromDate != "" && e.VisitDate < f.FromDate {
		return false
	}
	checks := []struct{ want, got string }{
		{f.PageType, e.PageType},
		{f.PageID, e.PageID},
		{f.UTMSource, e.UTMSource},
		{f.UTMMedium, e.UTMMedium},
		{f.UTMCampaign, e.UTMCampaign},
		{f.Region, e.Region},
	}
	for _, c := range checks {
		if c.want != "" && c.want != c.got {
			return false
		}
	}
	return true
}

func matchDelete(e *model.AnalyticsEvent, f model.EventDeleteFilter) bool {
	switch {
	case f.All:
		return true
	case f.TestTraffic:
		return isTestSession(e.SessionID) || strings.EqualFold(e.UTMSource, constant.TestUTMSource)
	case !f.CreatedBefore.IsZero():
		return e.CreatedAt.Before(f.CreatedBefore)
	}
	return false
}

func isTestSession(sessionID string) bool {
	return strings.HasPrefix(strings.ToLower(sessionID), constant.TestSessionPrefix)
}

// dimensionValue 取出事件在某维度上的值，空字符串维度不参与分组
func dimensionValue(e *model.AnalyticsEvent, dim model.EventDimension) (string, bool) {
	var v string
	switch dim {
	case model.DimensionPage:
		v = e.PagePath
	case model.DimensionRegion:
		v = e.Region
	case model.DimensionDevice:
		v = e.DeviceCategory
	case model.DimensionScreen:
		v = e.ScreenSize
	case model.DimensionUTMSource:
		v = e.UTMSource
	case model.DimensionUTMCampaign:
		v = e.UTMCampaign
	case model.DimensionUTMMedium:
		v = e.UTMMedium
	case model.DimensionGoal:
		v = e.ConversionGoal
	case model.DimensionHour:
		return strconv.Itoa(e.VisitHour), true
	case model.DimensionWeekday:
		return strconv.Itoa(e.VisitDayOfWeek), true
	default:
		return "", false
	}
	return v, v != ""
}
