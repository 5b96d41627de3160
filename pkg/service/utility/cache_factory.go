/*
 * @Description: 智能缓存工厂，自动选择 Redis 或内存缓存
 */
package utility

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// NewCacheServiceWithFallback 创建带有自动降级功能的缓存服务。
// 如果 redisClient 为 nil 或不可用，自动降级到内存缓存。
func NewCacheServiceWithFallback(redisClient *redis.Client) CacheService {
	if redisClient == nil {
		log.Println("🔄 使用内存缓存服务（Memory Cache）")
		return NewMemoryCacheService()
	}

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️  Redis 不可用: %v，降级到内存缓存", err)
		return NewMemoryCacheService()
	}

	log.Println("✅ 使用 Redis 缓存服务")
	return NewCacheService(redisClient)
}

// CacheServiceType 缓存服务类型
type CacheServiceType string

const (
	CacheTypeRedis  CacheServiceType = "redis"
	CacheTypeMemory CacheServiceType = "memory"
)

// GetCacheServiceType 获取当前使用的缓存类型，启动日志里会打印
func GetCacheServiceType(svc CacheService) CacheServiceType {
	if _, ok := svc.(*redisCacheService); ok {
		return CacheTypeRedis
	}
	return CacheTypeMemory
}

// DeleteByPrefix 删除所有以 prefix 开头的键
func DeleteByPrefix(ctx context.Context, svc CacheService, prefix string) error {
	keys, err := svc.Scan(ctx, prefix+"*")
	if err != nil {
		return err
	}
	return svc.Delete(ctx, keys...)
}
