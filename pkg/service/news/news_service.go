/*
 * @Description: 公告服务（后台手动创建、前台列表与详情）
 */
package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/internal/pkg/parser"
	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// NewsService 公告服务接口
type NewsService interface {
	Create(ctx context.Context, req *model.CreateNewsRequest) (*model.News, error)
	ListPublished(ctx context.Context, query model.NewsListQuery) (*model.NewsListResult, error)
	// Get 返回已发布的公告并累加浏览量
	Get(ctx context.Context, id string) (*model.News, error)
	Delete(ctx context.Context, id string) error
}

type newsService struct {
	newsRepo      repository.NewsRepository
	characterRepo repository.CharacterRepository
	publisher     EventPublisher
	author        string
	now           func() time.Time
}

// NewNewsService 创建公告服务实例
func NewNewsService(
	newsRepo repository.NewsRepository,
	characterRepo repository.CharacterRepository,
	publisher EventPublisher,
	author string,
) NewsService {
	if author == "" {
		author = constant.DefaultNewsAuthor
	}
	return &newsService{
		newsRepo:      newsRepo,
		characterRepo: characterRepo,
		publisher:     publisher,
		author:        author,
		now:           time.Now,
	}
}

func (s *newsService) Create(ctx context.Context, req *model.CreateNewsRequest) (*model.News, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: 标题和内容不能为空", constant.ErrBadRequest)
	}

	newsType := req.Type
	if newsType == "" {
		newsType = constant.NewsTypeManual
	}
	if !constant.ManualNewsTypes[newsType] {
		return nil, fmt.Errorf("%w: 不支持手动创建类型为 %q 的公告", constant.ErrBadRequest, newsType)
	}

	content, err := parser.MarkdownToHTML(req.Content)
	if err != nil {
		return nil, fmt.Errorf("解析公告内容失败: %w", err)
	}

	now := s.now()
	news := &model.News{
		Title:     title,
		Content:   content,
		Summary:   parser.Summary(content, summaryLength),
		Type:      newsType,
		Tags:      req.Tags,
		Author:    req.Author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if news.Author == "" {
		news.Author = s.author
	}
	if news.Tags == nil {
		news.Tags = []string{}
	}
	if req.Publish == nil || *req.Publish {
		news.IsPublished = true
		news.PublishedAt = now
	}

	if req.CharacterID != "" {
		c, err := s.characterRepo.FindByID(ctx, req.CharacterID)
		if errors.Is(err, constant.ErrNotFound) {
			return nil, fmt.Errorf("%w: 角色 %s 不存在", constant.ErrBadRequest, req.CharacterID)
		}
		if err != nil {
			return nil, err
		}
		news.CharacterID = c.ID
		news.CharacterName = c.Name
		news.CharacterImage = c.Image
	}

	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, err
	}
	log.Printf("[News] 已创建公告 %s (%s)", news.ID, news.Type)

	if news.IsPublished && s.publisher != nil {
		s.publisher.Publish(event.NewsPublished, news)
	}
	return news, nil
}

func (s *newsService) ListPublished(ctx context.Context, query model.NewsListQuery) (*model.NewsListResult, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = defaultPageSize
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}
	query.PublishedOnly = true

	list, total, err := s.newsRepo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.News{}
	}
	return &model.NewsListResult{List: list, Total: total, Page: query.Page, PageSize: query.PageSize}, nil
}

func (s *newsService) Get(ctx context.Context, id string) (*model.News, error) {
	news, err := s.newsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !news.IsPublished {
		return nil, constant.ErrNotFound
	}
	if err := s.newsRepo.IncrementViews(ctx, id); err != nil {
		log.Printf("[News] 更新公告 %s 浏览量失败: %v", id, err)
	} else {
		news.Views++
	}
	return news, nil
}

func (s *newsService) Delete(ctx context.Context, id string) error {
	return s.newsRepo.Delete(ctx, id)
}
