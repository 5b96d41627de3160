package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paimon-guide/guide-app/internal/infra/persistence/memory"
	"github.com/paimon-guide/guide-app/internal/pkg/event"
	"github.com/paimon-guide/guide-app/internal/pkg/utils"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
	"github.com/paimon-guide/guide-app/pkg/service/utility"
)

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []event.Topic
	payloads []interface{}
}

func (p *recordingPublisher) Publish(topic event.Topic, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
}

func (p *recordingPublisher) count(topic event.Topic) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type testEnv struct {
	events    repository.AnalyticsEventRepository
	sessions  repository.SessionRepository
	cache     utility.CacheService
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		events:    memory.NewAnalyticsEventRepository(),
		sessions:  memory.NewSessionRepository(),
		cache:     utility.NewMemoryCacheService(),
		publisher: &recordingPublisher{},
	}
}

// fixedNow 2024-05-10 12:00 (UTC+3)
var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, utils.BusinessTimezone)

func (e *testEnv) ingestService(opts IngestOptions) *ingestService {
	svc := NewIngestService(e.events, e.sessions, e.cache, nil, e.publisher, opts).(*ingestService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (e *testEnv) statsService(opts StatsOptions) *statsService {
	svc := NewStatsService(e.events, e.cache, opts).(*statsService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (e *testEnv) countEvents(t *testing.T) int64 {
	t.Helper()
	totals, err := e.events.Totals(context.Background(), model.EventFilter{})
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	return totals.Events
}

func (e *testEnv) appendEvent(t *testing.T, ev model.AnalyticsEvent) {
	t.Helper()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = fixedNow
	}
	if err := e.events.Append(context.Background(), &ev); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func validRequest(sessionID string) *model.IngestRequest {
	return &model.IngestRequest{
		SessionID:      sessionID,
		Page:           "/characters/raiden",
		PageType:       "character",
		DeviceCategory: "mobile",
		Region:         "asia",
		VisitDate:      "2024-05-01",
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
