/*
 * @Description: 一个带固定Worker池的异步事件总线
 */
package event

import (
	"log"
	"sync"
)

// Topic 事件类型
type Topic string

const (
	// AnalyticsEventRecorded 一条访问事件已写入，载荷为 *model.AnalyticsEvent
	AnalyticsEventRecorded Topic = "analytics:event_recorded"
	// AnalyticsEventsReset 管理员清理了统计数据，载荷为 *model.ResetResult
	AnalyticsEventsReset Topic = "analytics:events_reset"
	// NewsPublished 新公告已发布，载荷为 *model.News
	NewsPublished Topic = "news:published"
)

// Handler 事件处理器函数类型
type Handler func(payload interface{})

// Event 是在通道中传递的事件结构
type Event struct {
	Topic   Topic
	Payload interface{}
}

// EventBus 实现了基于Worker池的异步事件总线
type EventBus struct {
	mu        sync.RWMutex
	handlers  map[Topic][]Handler
	eventChan chan Event
	closed    bool
	wg        sync.WaitGroup
}

const (
	DefaultWorkerCount = 4
	DefaultChannelSize = 1024
)

// NewEventBus 创建并启动一个使用默认配置的事件总线
func NewEventBus() *EventBus {
	return NewEventBusWithSize(DefaultWorkerCount, DefaultChannelSize)
}

// NewEventBusWithSize 按给定的 worker 数和缓冲区大小创建事件总线
func NewEventBusWithSize(workers, size int) *EventBus {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	if size <= 0 {
		size = DefaultChannelSize
	}
	bus := &EventBus{
		handlers:  make(map[Topic][]Handler),
		eventChan: make(chan Event, size),
	}
	for i := 0; i < workers; i++ {
		bus.wg.Add(1)
		go bus.worker(i + 1)
	}
	return bus
}

func (b *EventBus) worker(workerID int) {
	defer b.wg.Done()
	log.Printf("[EventBus] Worker %d started", workerID)

	for event := range b.eventChan {
		b.mu.RLock()
		handlers := b.handlers[event.Topic]
		b.mu.RUnlock()

		for _, handler := range handlers {
			b.dispatch(event, handler)
		}
	}
	log.Printf("[EventBus] Worker %d stopped", workerID)
}

// dispatch 单个处理器 panic 不能拖垮 worker
func (b *EventBus) dispatch(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EventBus] ERROR: handler for topic '%s' panicked: %v", event.Topic, r)
		}
	}()
	handler(event.Payload)
}

// Subscribe 订阅一个事件
func (b *EventBus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish 非阻塞地发布事件，通道已满或总线已关闭时丢弃
func (b *EventBus) Publish(topic Topic, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		log.Printf("[EventBus] WARN: bus is shut down. Dropping event for topic '%s'.", topic)
		return
	}

	select {
	case b.eventChan <- Event{Topic: topic, Payload: payload}:
	default:
		log.Printf("[EventBus] WARN: Event channel is full. Dropping event for topic '%s'.", topic)
	}
}

// Shutdown 优雅地关闭事件总线，等待已入队事件处理完毕
func (b *EventBus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.eventChan)
	b.mu.Unlock()

	log.Println("[EventBus] Shutting down...")
	b.wg.Wait()
	log.Println("[EventBus] All workers have stopped.")
}
