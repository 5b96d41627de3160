/*
 * @Description: 内存缓存服务实现（用于 Redis 不可用时的降级方案）
 */
package utility

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type cacheItem struct {
	value      string
	expiration time.Time
	hasExpiry  bool
}

func (item *cacheItem) isExpired(now time.Time) bool {
	return item.hasExpiry && now.After(item.expiration)
}

// memoryCacheService 是基于内存的缓存服务实现。
// SetNX 需要"读-判断-写"原子完成，所以用一把互斥锁而不是 sync.Map。
type memoryCacheService struct {
	mu     sync.Mutex
	data   map[string]*cacheItem
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewMemoryCacheService 创建内存缓存服务实例
func NewMemoryCacheService() CacheService {
	svc := &memoryCacheService{
		data:   make(map[string]*cacheItem),
		ticker: time.NewTicker(1 * time.Minute), // 每分钟清理一次过期数据
		done:   make(chan struct{}),
	}
	go svc.cleanupExpired()
	return svc
}

func (s *memoryCacheService) cleanupExpired() {
	for {
		select {
		case <-s.ticker.C:
			now := time.Now()
			s.mu.Lock()
			for k, item := range s.data {
				if item.isExpired(now) {
					delete(s.data, k)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// Stop 停止清理任务
func (s *memoryCacheService) Stop() {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}

func newCacheItem(value interface{}, expiration time.Duration) *cacheItem {
	item := &cacheItem{value: fmt.Sprintf("%v", value), hasExpiry: expiration > 0}
	if expiration > 0 {
		item.expiration = time.Now().Add(expiration)
	}
	return item
}

// load 调用方需持有锁
func (s *memoryCacheService) load(key string) (*cacheItem, bool) {
	item, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if item.isExpired(time.Now()) {
		delete(s.data, key)
		return nil, false
	}
	return item, true
}

func (s *memoryCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = newCacheItem(value, expiration)
	return nil
}

func (s *memoryCacheService) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.load(key); ok {
		return item.value, nil
	}
	return "", nil
}

func (s *memoryCacheService) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *memoryCacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.load(key); ok {
		return false, nil
	}
	s.data[key] = newCacheItem(value, expiration)
	return true, nil
}

func (s *memoryCacheService) Scan(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	exact := !strings.HasSuffix(pattern, "*")

	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0)
	now := time.Now()
	for k, item := range s.data {
		if item.isExpired(now) {
			continue
		}
		if (exact && k == pattern) || (!exact && strings.HasPrefix(k, prefix)) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
