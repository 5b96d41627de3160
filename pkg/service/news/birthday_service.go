/*
 * @Description: 角色生日公告生成服务
 */
package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/internal/pkg/parser"
	"github.com/paimon-guide/guide-app/internal/pkg/utils"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
	"github.com/paimon-guide/guide-app/pkg/service/utility"
)

const (
	birthdayLockPrefix = "news:birthday:lock:"
	birthdayLockTTL    = 5 * time.Minute
	summaryLength      = 120
)

// EventPublisher 事件总线的发布端
type EventPublisher interface {
	Publish(topic event.Topic, payload interface{})
}

// BirthdayService 生日公告服务接口
type BirthdayService interface {
	// Check 检查今天过生日的角色并生成公告；dryRun 只报告不写入
	Check(ctx context.Context, dryRun bool) (*model.BirthdayCheckResult, error)
}

// BirthdayOptions 生日服务的可调参数
type BirthdayOptions struct {
	Author   string
	Location *time.Location // 默认服务器本地时区
}

type birthdayService struct {
	characterRepo repository.CharacterRepository
	newsRepo      repository.NewsRepository
	cacheService  utility.CacheService
	publisher     EventPublisher
	opts          BirthdayOptions
	now           func() time.Time
	pick          func(n int) int
}

// NewBirthdayService 创建生日公告服务实例
func NewBirthdayService(
	characterRepo repository.CharacterRepository,
	newsRepo repository.NewsRepository,
	cacheService utility.CacheService,
	publisher EventPublisher,
	opts BirthdayOptions,
) BirthdayService {
	if opts.Author == "" {
		opts.Author = constant.DefaultNewsAuthor
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &birthdayService{
		characterRepo: characterRepo,
		newsRepo:      newsRepo,
		cacheService:  cacheService,
		publisher:     publisher,
		opts:          opts,
		now:           time.Now,
		pick:          rand.Intn,
	}
}

func (s *birthdayService) Check(ctx context.Context, dryRun bool) (*model.BirthdayCheckResult, error) {
	now := s.now().In(s.opts.Location)
	day := utils.FormatDay(now, s.opts.Location)
	start, end := utils.DayBoundsIn(now, s.opts.Location)

	if !dryRun {
		release, err := s.acquireLock(ctx, day)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	characters, err := s.characterRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取角色目录失败: %w", err)
	}

	result := &model.BirthdayCheckResult{
		Date:    day,
		DryRun:  dryRun,
		Checked: len(characters),
		Results: make([]model.BirthdayCharacterResult, 0),
	}

	today := utils.MonthDay(now)
	for _, c := range characters {
		if normalizeMonthDay(c.Birthday) != today {
			continue
		}
		result.Matched++

		item := s.processCharacter(ctx, c, day, now, start, end, dryRun)
		switch item.Status {
		case constant.BirthdayStatusCreated:
			result.Generated++
		case constant.BirthdayStatusAlreadyExists:
			result.Skipped++
		case constant.BirthdayStatusError:
			result.Failed++
		}
		result.Results = append(result.Results, item)
	}

	log.Printf("[Birthday] %s 生日检查完成 (dryRun=%v): 角色 %d, 今日生日 %d, 生成 %d, 跳过 %d, 失败 %d",
		day, dryRun, result.Checked, result.Matched, result.Generated, result.Skipped, result.Failed)
	return result, nil
}

// processCharacter 单个角色的失败只记录在结果里，不影响其他角色
func (s *birthdayService) processCharacter(
	ctx context.Context,
	c *model.Character,
	day string,
	now, start, end time.Time,
	dryRun bool,
) model.BirthdayCharacterResult {
	item := model.BirthdayCharacterResult{CharacterID: c.ID, Name: c.Name}

	exists, err := s.newsRepo.ExistsBirthday(ctx, c.ID, start, end)
	if err != nil {
		return failed(item, err)
	}
	if exists {
		item.Status = constant.BirthdayStatusAlreadyExists
		return item
	}
	if dryRun {
		item.Status = constant.BirthdayStatusWouldCreate
		return item
	}

	news := s.buildNews(c, day, now)
	if err := s.newsRepo.Create(ctx, news); err != nil {
		// 并发执行时唯一索引会拒绝第二条，视为已存在
		if errors.Is(err, constant.ErrConflict) {
			item.Status = constant.BirthdayStatusAlreadyExists
			return item
		}
		return failed(item, err)
	}

	item.Status = constant.BirthdayStatusCreated
	item.NewsID = news.ID
	if s.publisher != nil {
		s.publisher.Publish(event.NewsPublished, news)
	}
	return item
}

func failed(item model.BirthdayCharacterResult, err error) model.BirthdayCharacterResult {
	log.Printf("[Birthday] 处理角色 %s(%s) 失败: %v", item.Name, item.CharacterID, err)
	item.Status = constant.BirthdayStatusError
	item.Error = err.Error()
	return item
}

func (s *birthdayService) buildNews(c *model.Character, day string, now time.Time) *model.News {
	tpl := birthdayTemplates[s.pick(len(birthdayTemplates))]
	name := html.EscapeString(c.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>", fmt.Sprintf(tpl.Body, name))
	if c.Image != "" {
		fmt.Fprintf(&b, `<p><img class="birthday-portrait" src="%s" alt="%s" loading="lazy"></p>`,
			html.EscapeString(c.Image), name)
	}
	content := parser.SanitizeHTML(b.String())

	tags := make([]string, 0, len(tpl.Tags)+1)
	tags = append(tags, tpl.Tags...)
	tags = append(tags, c.Name)

	return &model.News{
		Title:          fmt.Sprintf("今天是 %s 的生日！", c.Name),
		Content:        content,
		Summary:        parser.Summary(content, summaryLength),
		Type:           constant.NewsTypeBirthday,
		CharacterID:    c.ID,
		CharacterName:  c.Name,
		CharacterImage: c.Image,
		BirthdayDay:    day,
		IsPublished:    true,
		PublishedAt:    now,
		Tags:           tags,
		Author:         s.opts.Author,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// acquireLock 同一天的执行互斥，返回释放函数
func (s *birthdayService) acquireLock(ctx context.Context, day string) (func(), error) {
	if s.cacheService == nil {
		return func() {}, nil
	}
	key := birthdayLockPrefix + day
	ok, err := s.cacheService.SetNX(ctx, key, strconv.FormatInt(s.now().Unix(), 10), birthdayLockTTL)
	if err != nil {
		log.Printf("[Birthday] 获取执行锁失败，继续执行（依赖唯一索引兜底）: %v", err)
		return func() {}, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w", constant.ErrTaskRunning, constant.ErrConflict)
	}
	return func() {
		if err := s.cacheService.Delete(context.Background(), key); err != nil {
			log.Printf("[Birthday] 释放执行锁失败: %v", err)
		}
	}, nil
}

// normalizeMonthDay 将 "6-26"、"06/26"、"2000-06-26" 统一为 "06-26"，无法解析时返回空串
func normalizeMonthDay(raw string) string {
	parts := strings.FieldsFunc(strings.TrimSpace(raw), func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) == 3 {
		parts = parts[1:]
	}
	if len(parts) != 2 {
		return ""
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return ""
	}
	dayOfMonth, err := strconv.Atoi(parts[1])
	if err != nil || dayOfMonth < 1 || dayOfMonth > 31 {
		return ""
	}
	return fmt.Sprintf("%02d-%02d", month, dayOfMonth)
}
