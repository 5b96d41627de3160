/*
 * @Description: 按客户端 IP 的频率限制中间件
 */
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/paimon-guide/guide-app/pkg/response"
	"github.com/paimon-guide/guide-app/pkg/util"
)

// staleAfter 超过该时长未访问的限流器会被回收
const staleAfter = 10 * time.Minute

type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterInfo
	every    rate.Limit
	burst    int
}

type limiterInfo struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

func newIPRateLimiter(requestsPerMinute, burst int) *ipRateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters: make(map[string]*limiterInfo),
		every:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    burst,
	}
}

func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	info, ok := i.limiters[ip]
	if !ok {
		info = &limiterInfo{limiter: rate.NewLimiter(i.every, i.burst)}
		i.limiters[ip] = info
	}
	info.lastAccessed = time.Now()
	return info.limiter
}

func (i *ipRateLimiter) cleanup(now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for ip, info := range i.limiters {
		if now.Sub(info.lastAccessed) > staleAfter {
			delete(i.limiters, ip)
		}
	}
}

func (i *ipRateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for now := range ticker.C {
		i.cleanup(now)
	}
}

// CustomRateLimit 每个 IP 每分钟最多 requestsPerMinute 次请求，允许 burst 次突发
func CustomRateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	limiter := newIPRateLimiter(requestsPerMinute, burst)
	go limiter.cleanupLoop(5 * time.Minute)

	return func(c *gin.Context) {
		if !limiter.getLimiter(util.GetRealClientIP(c)).Allow() {
			response.Fail(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
