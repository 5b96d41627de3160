package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

type fakeStreamer struct {
	mu     sync.Mutex
	events []string
	news   []string
	done   chan struct{}
}

func (f *fakeStreamer) Publish(ctx context.Context, ev *model.AnalyticsEvent) error {
	f.mu.Lock()
	f.events = append(f.events, ev.ID)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeStreamer) PublishNews(ctx context.Context, n *model.News) error {
	f.mu.Lock()
	f.news = append(f.news, n.ID)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("等待事件处理超时")
	}
}

func TestStreamMirrorListener(t *testing.T) {
	bus := event.NewEventBusWithSize(1, 8)
	defer bus.Shutdown()

	streamer := &fakeStreamer{done: make(chan struct{}, 4)}
	NewStreamMirrorListener(bus, streamer)

	// 类型不正确的负载会被忽略
	bus.Publish(event.AnalyticsEventRecorded, "not-an-event")
	bus.Publish(event.AnalyticsEventRecorded, &model.AnalyticsEvent{ID: "e1"})
	bus.Publish(event.NewsPublished, &model.News{ID: "n1"})
	waitFor(t, streamer.done)
	waitFor(t, streamer.done)

	streamer.mu.Lock()
	defer streamer.mu.Unlock()
	if len(streamer.events) != 1 || streamer.events[0] != "e1" {
		t.Errorf("镜像的访问事件 = %v", streamer.events)
	}
	if len(streamer.news) != 1 || streamer.news[0] != "n1" {
		t.Errorf("镜像的公告 = %v", streamer.news)
	}
}

type fakeInvalidator struct{ done chan struct{} }

func (f *fakeInvalidator) InvalidateCache(ctx context.Context) error {
	close(f.done)
	return nil
}

func TestStatsCacheListener(t *testing.T) {
	bus := event.NewEventBusWithSize(1, 8)
	defer bus.Shutdown()

	inv := &fakeInvalidator{done: make(chan struct{})}
	NewStatsCacheListener(bus, inv)

	bus.Publish(event.AnalyticsEventsReset, &model.ResetResult{ResetType: "all"})
	waitFor(t, inv.done)
}
