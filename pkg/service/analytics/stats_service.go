/*
 * @Description: 统计报表服务
 */
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paimon-guide/guide-app/internal/pkg/utils"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
	"github.com/paimon-guide/guide-app/pkg/service/utility"
)

// StatsCacheKeyPrefix 统计结果缓存键前缀，重置数据后按前缀清除
const StatsCacheKeyPrefix = "analytics:stats:"

const defaultStatsRange = constant.Range7Days

// StatsService 统计报表服务接口
type StatsService interface {
	Report(ctx context.Context, query model.StatsQuery) (*model.StatsReport, error)
	InvalidateCache(ctx context.Context) error
}

// StatsOptions 报表服务的可调参数
type StatsOptions struct {
	Location          *time.Location
	AdminPathPrefix   string
	TopLimit          int
	DetailSampleLimit int
	CacheTTL          time.Duration // 0 表示不缓存
}

type statsService struct {
	eventRepo    repository.AnalyticsEventRepository
	cacheService utility.CacheService
	opts         StatsOptions
	now          func() time.Time
}

// NewStatsService 创建报表服务实例
func NewStatsService(eventRepo repository.AnalyticsEventRepository, cacheService utility.CacheService, opts StatsOptions) StatsService {
	if opts.Location == nil {
		opts.Location = utils.BusinessTimezone
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = 20
	}
	if opts.DetailSampleLimit <= 0 {
		opts.DetailSampleLimit = 10
	}
	return &statsService{
		eventRepo:    eventRepo,
		cacheService: cacheService,
		opts:         opts,
		now:          time.Now,
	}
}

// Report 生成统计报表，命中缓存时直接返回
func (s *statsService) Report(ctx context.Context, query model.StatsQuery) (*model.StatsReport, error) {
	if query.Range == "" {
		query.Range = defaultStatsRange
	}
	filter, cutoff, err := s.buildFilter(query)
	if err != nil {
		return nil, err
	}

	cacheKey := statsCacheKey(query)
	if cached := s.loadCached(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	report := &model.StatsReport{
		Range:       query.Range,
		CutoffDate:  cutoff,
		GeneratedAt: s.now(),
	}

	totals, err := s.eventRepo.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}
	report.Totals = toStatsTotals(totals)

	breakdowns := []struct {
		dim  model.EventDimension
		dest *[]model.DimensionCount
	}{
		{model.DimensionPage, &report.TopPages},
		{model.DimensionRegion, &report.Regions},
		{model.DimensionDevice, &report.Devices},
		{model.DimensionScreen, &report.ScreenSizes},
		{model.DimensionUTMSource, &report.UTMSources},
		{model.DimensionUTMCampaign, &report.UTMCampaigns},
		{model.DimensionUTMMedium, &report.UTMMediums},
		{model.DimensionGoal, &report.Goals},
	}
	for _, b := range breakdowns {
		rows, err := s.eventRepo.GroupBy(ctx, filter, b.dim, s.opts.TopLimit)
		if err != nil {
			return nil, err
		}
		*b.dest = roundValues(rows)
	}

	hourly, err := s.eventRepo.GroupBy(ctx, filter, model.DimensionHour, 0)
	if err != nil {
		return nil, err
	}
	report.Hourly = fillSeries(hourly, 24)

	weekdays, err := s.eventRepo.GroupBy(ctx, filter, model.DimensionWeekday, 0)
	if err != nil {
		return nil, err
	}
	report.Weekdays = fillSeries(weekdays, 7)

	if query.PageID != "" {
		detail, err := s.pageDetail(ctx, filter, query.PageID)
		if err != nil {
			return nil, err
		}
		report.PageDetail = detail
	}

	s.storeCached(ctx, cacheKey, report)
	return report, nil
}

// buildFilter 解析时间范围；pageId 只作用于单页详情，不收窄整体报表
func (s *statsService) buildFilter(query model.StatsQuery) (model.EventFilter, string, error) {
	filter := model.EventFilter{
		PageType:          query.PageType,
		UTMSource:         query.UTMSource,
		UTMMedium:         query.UTMMedium,
		UTMCampaign:       query.UTMCampaign,
		Region:            query.Region,
		ExcludePathPrefix: s.opts.AdminPathPrefix,
	}
	if query.Range == constant.RangeAll {
		return filter, "", nil
	}
	days, ok := constant.RangeDays[query.Range]
	if !ok {
		return filter, "", fmt.Errorf("%w: %s", constant.ErrInvalidRange, query.Range)
	}
	cutoff := utils.CutoffDay(s.now(), s.opts.Location, days).Format(utils.DayLayout)
	filter.FromDate = cutoff
	return filter, cutoff, nil
}

func (s *statsService) pageDetail(ctx context.Context, base model.EventFilter, pageID string) (*model.PageDetail, error) {
	filter := base
	filter.PageID = pageID

	totals, err := s.eventRepo.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}
	regions, err := s.eventRepo.GroupBy(ctx, filter, model.DimensionRegion, s.opts.DetailSampleLimit)
	if err != nil {
		return nil, err
	}
	devices, err := s.eventRepo.GroupBy(ctx, filter, model.DimensionDevice, s.opts.DetailSampleLimit)
	if err != nil {
		return nil, err
	}
	return &model.PageDetail{
		PageID:  pageID,
		Totals:  toStatsTotals(totals),
		Regions: nonNil(regions),
		Devices: nonNil(devices),
	}, nil
}

func (s *statsService) InvalidateCache(ctx context.Context) error {
	if s.cacheService == nil {
		return nil
	}
	return utility.DeleteByPrefix(ctx, s.cacheService, StatsCacheKeyPrefix)
}

func (s *statsService) loadCached(ctx context.Context, key string) *model.StatsReport {
	if s.opts.CacheTTL <= 0 || s.cacheService == nil {
		return nil
	}
	raw, err := s.cacheService.Get(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	var report model.StatsReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		log.Printf("[Analytics] 统计缓存 %s 已损坏，重新计算: %v", key, err)
		return nil
	}
	return &report
}

func (s *statsService) storeCached(ctx context.Context, key string, report *model.StatsReport) {
	if s.opts.CacheTTL <= 0 || s.cacheService == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cacheService.Set(ctx, key, string(data), s.opts.CacheTTL); err != nil {
		log.Printf("[Analytics] 写入统计缓存失败: %v", err)
	}
}

func statsCacheKey(q model.StatsQuery) string {
	parts := []string{q.Range, q.PageType, q.PageID, q.UTMSource, q.UTMMedium, q.UTMCampaign, q.Region}
	return StatsCacheKeyPrefix + strings.Join(parts, "|")
}

func toStatsTotals(t *model.EventTotals) model.StatsTotals {
	if t == nil {
		return model.StatsTotals{}
	}
	return model.StatsTotals{
		TotalEvents:    t.Events,
		UniqueVisitors: t.Sessions,
		AvgTimeOnPage:  round2(t.AvgTimeOnPage),
		AvgLoadTime:    round2(t.AvgLoadTime),
		BounceRate:     round2(t.BounceRatio * 100),
	}
}

// fillSeries 将 0..n-1 的数值维度补齐为连续序列，缺失的桶计 0
func fillSeries(rows []model.DimensionCount, n int) []model.DimensionCount {
	byKey := make(map[string]model.DimensionCount, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r
	}
	series := make([]model.DimensionCount, n)
	for i := 0; i < n; i++ {
		key := strconv.Itoa(i)
		row, ok := byKey[key]
		if !ok {
			row = model.DimensionCount{Key: key}
		}
		series[i] = row
	}
	return roundValues(series)
}

func roundValues(rows []model.DimensionCount) []model.DimensionCount {
	for i := range rows {
		rows[i].Value = round2(rows[i].Value)
	}
	return nonNil(rows)
}

// nonNil 保证 JSON 中输出 [] 而不是 null
func nonNil(rows []model.DimensionCount) []model.DimensionCount {
	if rows == nil {
		return []model.DimensionCount{}
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
