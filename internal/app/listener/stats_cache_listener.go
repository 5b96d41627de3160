package listener

import (
	"context"
	"log"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
)

// StatsCacheInvalidator 可清除统计缓存的服务
type StatsCacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// StatsCacheListener 在统计数据被重置后清除报表缓存
type StatsCacheListener struct {
	stats StatsCacheInvalidator
}

// NewStatsCacheListener 创建监听器并订阅重置事件
func NewStatsCacheListener(eventBus *event.EventBus, stats StatsCacheInvalidator) *StatsCacheListener {
	l := &StatsCacheListener{stats: stats}
	eventBus.Subscribe(event.AnalyticsEventsReset, l.handleReset)
	return l
}

func (l *StatsCacheListener) handleReset(payload interface{}) {
	if err := l.stats.InvalidateCache(context.Background()); err != nil {
		log.Printf("[StatsCacheListener] 清除统计缓存失败: %v", err)
		return
	}
	log.Println("[StatsCacheListener] 统计数据已重置，报表缓存已清除")
}
