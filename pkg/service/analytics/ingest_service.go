/*
 * @Description: 访问信标接入服务：校验、排除、去重、分类后写入事件并更新会话汇总
 */
package analytics

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/internal/pkg/utils"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
	"github.com/paimon-guide/guide-app/pkg/service/utility"
)

const dedupeKeyPrefix = "analytics:dedupe:"

// IngestService 访问事件接入服务接口
type IngestService interface {
	Ingest(ctx context.Context, req *model.IngestRequest) (*model.IngestResult, error)
}

// IngestOptions 接入服务的可调参数
type IngestOptions struct {
	AdminPathPrefix string
	DedupeTTL       time.Duration // eventId 幂等窗口，0 表示不去重
	Location        *time.Location
}

type ingestService struct {
	eventRepo    repository.AnalyticsEventRepository
	sessionRepo  repository.SessionRepository
	cacheService utility.CacheService
	classifier   Classifier
	publisher    EventPublisher
	opts         IngestOptions
	now          func() time.Time
}

// NewIngestService 创建接入服务实例
func NewIngestService(
	eventRepo repository.AnalyticsEventRepository,
	sessionRepo repository.SessionRepository,
	cacheService utility.CacheService,
	classifier Classifier,
	publisher EventPublisher,
	opts IngestOptions,
) IngestService {
	if classifier == nil {
		classifier = NewBucketClassifier()
	}
	if opts.Location == nil {
		opts.Location = utils.BusinessTimezone
	}
	return &ingestService{
		eventRepo:    eventRepo,
		sessionRepo:  sessionRepo,
		cacheService: cacheService,
		classifier:   classifier,
		publisher:    publisher,
		opts:         opts,
		now:          time.Now,
	}
}

func (s *ingestService) Ingest(ctx context.Context, req *model.IngestRequest) (*model.IngestResult, error) {
	if err := validateIngest(req); err != nil {
		return nil, err
	}

	// 后台页面的访问直接确认，不落库
	if s.opts.AdminPathPrefix != "" && strings.HasPrefix(req.Page, s.opts.AdminPathPrefix) {
		return &model.IngestResult{Excluded: true}, nil
	}

	dedupeKey, duplicate := s.claimEventID(ctx, req.EventID)
	if duplicate {
		return &model.IngestResult{Duplicate: true}, nil
	}

	ev := s.buildEvent(req)
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.releaseEventID(ctx, dedupeKey)
		return nil, fmt.Errorf("记录访问事件失败: %w", err)
	}

	created, err := s.sessionRepo.Upsert(ctx, model.SessionTouch{
		SessionID:      ev.SessionID,
		At:             ev.CreatedAt,
		TimeOnPage:     ev.TimeOnPage,
		Engaged:        ev.TimeOnPage > constant.EngagedThresholdSeconds,
		DeviceCategory: ev.DeviceCategory,
		Region:         ev.Region,
		Page:           ev.PagePath,
		PageType:       ev.PageType,
	})
	if err != nil {
		s.rollbackEvent(ctx, ev)
		s.releaseEventID(ctx, dedupeKey)
		return nil, fmt.Errorf("更新会话 %s 失败: %w", ev.SessionID, err)
	}

	if s.publisher != nil {
		s.publisher.Publish(event.AnalyticsEventRecorded, ev)
	}
	return &model.IngestResult{Recorded: true, NewSession: created}, nil
}

// validateIngest 检查必填字段，任何一项缺失都不写入
func validateIngest(req *model.IngestRequest) error {
	if req == nil {
		return newValidationError("body", "请求体不能为空")
	}
	required := []struct {
		field string
		value string
	}{
		{"sessionId", req.SessionID},
		{"page", req.Page},
		{"pageType", req.PageType},
		{"deviceCategory", req.DeviceCategory},
		{"region", req.Region},
		{"visitDate", req.VisitDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return newValidationError(r.field, "不能为空")
		}
	}
	if _, err := utils.ParseDay(req.VisitDate, time.UTC); err != nil {
		return newValidationError("visitDate", "格式应为 YYYY-MM-DD")
	}
	if req.VisitHour != nil && (*req.VisitHour < 0 || *req.VisitHour > 23) {
		return newValidationError("visitHour", "取值范围为 0-23")
	}
	if req.VisitDayOfWeek != nil && (*req.VisitDayOfWeek < 0 || *req.VisitDayOfWeek > 6) {
		return newValidationError("visitDayOfWeek", "取值范围为 0-6")
	}
	return nil
}

// claimEventID 返回去重键以及该事件是否重复；缓存故障时放行
func (s *ingestService) claimEventID(ctx context.Context, eventID string) (string, bool) {
	if eventID == "" || s.opts.DedupeTTL <= 0 || s.cacheService == nil {
		return "", false
	}
	key := dedupeKeyPrefix + eventID
	ok, err := s.cacheService.SetNX(ctx, key, 1, s.opts.DedupeTTL)
	if err != nil {
		log.Printf("[Analytics] 事件去重检查失败，按新事件处理: %v", err)
		return "", false
	}
	if !ok {
		return "", true
	}
	return key, false
}

// releaseEventID 写入失败时释放去重键，允许客户端重试
func (s *ingestService) releaseEventID(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.cacheService.Delete(ctx, key); err != nil {
		log.Printf("[Analytics] 释放去重键 %s 失败: %v", key, err)
	}
}

// rollbackEvent 会话更新失败时撤回刚写入的事件，保证事件与会话汇总一起成功或一起失败。
// 撤回也失败时只能记录孤立事件，留给保留期任务清理。
func (s *ingestService) rollbackEvent(ctx context.Context, ev *model.AnalyticsEvent) {
	if err := s.eventRepo.Remove(ctx, ev.ID); err != nil {
		log.Printf("[Analytics] 撤回事件失败，留下孤立事件: id=%s session=%s err=%v", ev.ID, ev.SessionID, err)
	}
}

func (s *ingestService) buildEvent(req *model.IngestRequest) *model.AnalyticsEvent {
	now := s.now()
	visitDay, _ := utils.ParseDay(req.VisitDate, s.opts.Location)

	pageType := strings.ToLower(strings.TrimSpace(req.PageType))
	if !constant.KnownPageTypes[pageType] {
		pageType = constant.PageTypeOther
	}

	ev := &model.AnalyticsEvent{
		ID:              uuid.NewString(),
		SessionID:       strings.TrimSpace(req.SessionID),
		PagePath:        req.Page,
		PageType:        pageType,
		PageID:          req.PageID,
		DeviceCategory:  s.classifier.Device(req.DeviceCategory, req.UserAgent),
		ScreenSize:      s.classifier.Screen(req.ScreenSize, req.ScreenWidth),
		Region:          s.classifier.Region(req.Region),
		VisitDate:       req.VisitDate,
		VisitHour:       now.In(s.opts.Location).Hour(),
		VisitDayOfWeek:  int(visitDay.Weekday()),
		Bounce:          true,
		UTMSource:       req.UTMSource,
		UTMMedium:       req.UTMMedium,
		UTMCampaign:     req.UTMCampaign,
		UTMTerm:         req.UTMTerm,
		UTMContent:      req.UTMContent,
		IsFirstVisit:    req.IsFirstVisit,
		ConversionGoal:  req.ConversionGoal,
		ConversionValue: req.ConversionValue,
		CreatedAt:       now,
	}

	if req.VisitHour != nil {
		ev.VisitHour = *req.VisitHour
	}
	if req.VisitDayOfWeek != nil {
		ev.VisitDayOfWeek = *req.VisitDayOfWeek
	}
	if req.TimeOnPage != nil && *req.TimeOnPage > 0 {
		ev.TimeOnPage = *req.TimeOnPage
	}
	if req.ScrollDepth != nil {
		ev.ScrollDepth = clamp(*req.ScrollDepth, 0, 100)
	}
	if req.ClickCount != nil && *req.ClickCount > 0 {
		ev.ClickCount = *req.ClickCount
	}
	if req.LoadTime != nil && *req.LoadTime > 0 {
		ev.LoadTime = *req.LoadTime
	}
	if req.Bounce != nil {
		ev.Bounce = *req.Bounce
	}
	return ev
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
