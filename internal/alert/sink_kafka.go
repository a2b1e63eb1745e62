package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink mirrors published alerts to a Kafka topic so downstream agency
// systems can consume them outside this process. The in-process bus remains
// the source of truth; the topic is a best-effort mirror.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink creates a producing client for the given brokers and topic.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Name() string { return "kafka:" + s.topic }

// Mirror produces the alert synchronously, keyed by alert ID so redeliveries
// of the same alert land in the same partition.
func (s *KafkaSink) Mirror(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert for mirror: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(a.ID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce alert mirror: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}
