package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"squadlink/pkg/platform/audit"
)

// Record headers set on every published audit entry.
const (
	HeaderCategory  = "audit-category"
	HeaderEventType = "audit-event-type"
	HeaderOutboxID  = "outbox-id"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes outbox messages to a single topic keyed by aggregate
// ID, so every entry for one Discord user lands on the same partition in order.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// NewKafkaClient builds a producer client with all-ISR acks.
func NewKafkaClient(brokers []string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, batch []audit.OutboxMessage) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, msg := range batch {
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(msg.AggregateID),
			Value: msg.Payload,
			Headers: []kgo.RecordHeader{
				{Key: HeaderCategory, Value: []byte(msg.Category)},
				{Key: HeaderEventType, Value: []byte(msg.EventType)},
				{Key: HeaderOutboxID, Value: []byte(msg.ID.String())},
			},
			Timestamp: msg.CreatedAt,
		})
	}
	if err := p.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit records: %w", err)
	}
	return nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
