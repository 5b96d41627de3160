/*
 * @Description: 监听访问事件与公告发布事件，并镜像到消息流
 */
package listener

import (
	"context"
	"log"
	"time"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

const mirrorTimeout = 5 * time.Second

// EventStreamer 消息流的发送端
type EventStreamer interface {
	Publish(ctx context.Context, ev *model.AnalyticsEvent) error
	PublishNews(ctx context.Context, news *model.News) error
}

// StreamMirrorListener 把总线上的事件转发给消息流；发送失败只记录日志，不影响主流程
type StreamMirrorListener struct {
	streamer EventStreamer
}

// NewStreamMirrorListener 创建监听器并订阅相关事件
func NewStreamMirrorListener(eventBus *event.EventBus, streamer EventStreamer) *StreamMirrorListener {
	l := &StreamMirrorListener{streamer: streamer}
	eventBus.Subscribe(event.AnalyticsEventRecorded, l.handleEventRecorded)
	eventBus.Subscribe(event.NewsPublished, l.handleNewsPublished)
	return l
}

func (l *StreamMirrorListener) handleEventRecorded(payload interface{}) {
	ev, ok := payload.(*model.AnalyticsEvent)
	if !ok {
		log.Printf("[StreamMirrorListener] 错误：收到的 %s 事件负载类型不正确: %T", event.AnalyticsEventRecorded, payload)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := l.streamer.Publish(ctx, ev); err != nil {
		log.Printf("[StreamMirrorListener] 镜像访问事件 %s 失败: %v", ev.ID, err)
	}
}

func (l *StreamMirrorListener) handleNewsPublished(payload interface{}) {
	news, ok := payload.(*model.News)
	if !ok {
		log.Printf("[StreamMirrorListener] 错误：收到的 %s 事件负载类型不正确: %T", event.NewsPublished, payload)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := l.streamer.PublishNews(ctx, news); err != nil {
		log.Printf("[StreamMirrorListener] 镜像公告 %s 失败: %v", news.ID, err)
	}
}
