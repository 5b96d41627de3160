package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/paimon-guide/guide-app/pkg/config"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

func TestKafkaProducer_Publish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev model.AnalyticsEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.SessionID != "s1" || ev.PagePath != "/characters/raiden" {
			return fmt.Errorf("unexpected payload: %s", val)
		}
		return nil
	})

	p := newKafkaProducer(mock, "guide.analytics.events")
	err := p.Publish(context.Background(), &model.AnalyticsEvent{SessionID: "s1", PagePath: "/characters/raiden"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestKafkaProducer_PublishNews(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var n model.News
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		if n.ID != "n1" {
			return fmt.Errorf("unexpected news id %q", n.ID)
		}
		return nil
	})

	p := newKafkaProducer(mock, "topic")
	if err := p.PublishNews(context.Background(), &model.News{ID: "n1", Title: "生日快乐"}); err != nil {
		t.Fatalf("PublishNews() error = %v", err)
	}
	_ = p.Close()
}

func TestKafkaProducer_PublishFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newKafkaProducer(mock, "topic")
	err := p.Publish(context.Background(), &model.AnalyticsEvent{SessionID: "s1"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("期望包装 ErrOutOfBrokers, got %v", err)
	}
	_ = p.Close()
}

func TestKafkaProducer_CanceledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := newKafkaProducer(mock, "topic")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, &model.AnalyticsEvent{SessionID: "s1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("已取消的 context 应直接返回, got %v", err)
	}
	_ = p.Close()
}

func TestNewKafkaProducer_DisabledWithoutBrokers(t *testing.T) {
	p, err := NewKafkaProducer(config.NewFromMap(map[string]interface{}{}))
	if err != nil || p != nil {
		t.Errorf("未配置 Brokers 时应返回 nil, got %v %v", p, err)
	}
}
