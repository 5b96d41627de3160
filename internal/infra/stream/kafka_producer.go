/*
 * @Description: 将接入的访问事件镜像到 Kafka，供下游实时消费
 */
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"

	"github.com/paimon-guide/guide-app/pkg/config"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

const eventTypeHeader = "event-type"

// KafkaProducer 基于 SyncProducer 的事件镜像发送端
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer 根据配置创建生产者；未配置 Brokers 时返回 nil，表示不镜像
func NewKafkaProducer(cfg *config.Config) (*KafkaProducer, error) {
	brokers := cfg.GetStringSlice(config.KeyStreamBrokers)
	if len(brokers) == 0 {
		log.Println("ℹ️  [Stream] 未配置 Kafka Brokers，访问事件不做镜像")
		return nil, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	// 同一会话的事件落在同一分区，保证会话内有序
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}

	topic := cfg.GetString(config.KeyStreamTopic)
	log.Printf("✅ [Stream] Kafka 生产者已连接 %v, topic: %s", brokers, topic)
	return newKafkaProducer(producer, topic), nil
}

func newKafkaProducer(producer sarama.SyncProducer, topic string) *KafkaProducer {
	return &KafkaProducer{producer: producer, topic: topic}
}

// Publish 同步发送一条访问事件，以 sessionId 作为分区键
func (p *KafkaProducer) Publish(ctx context.Context, ev *model.AnalyticsEvent) error {
	return p.send(ctx, ev.SessionID, "page_view", ev)
}

// PublishNews 发送一条公告发布通知，以公告ID作为分区键
func (p *KafkaProducer) PublishNews(ctx context.Context, news *model.News) error {
	return p.send(ctx, news.ID, "news_published", news)
}

func (p *KafkaProducer) send(ctx context.Context, key, eventType string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化 %s 消息失败: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(payload),
		Headers:   []sarama.RecordHeader{{Key: []byte(eventTypeHeader), Value: []byte(eventType)}},
		Timestamp: time.Now(),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("发送 %s 消息到 Kafka 失败: %w", eventType, err)
	}
	return nil
}

// Close 关闭生产者
func (p *KafkaProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("关闭 Kafka 生产者失败: %w", err)
	}
	log.Println("[Stream] Kafka 生产者已关闭")
	return nil
}
