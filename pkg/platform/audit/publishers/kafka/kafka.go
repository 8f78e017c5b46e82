// Package kafka publishes audit payloads to a Kafka topic with franz-go.
//
// Producer feeds the outbox relay. Sink is an audit.Store for backends
// without an outbox, where events go to the broker as they are emitted.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "drip/pkg/platform/audit"
)

// HeaderEventType carries the audit action on every record.
const HeaderEventType = "event_type"

// Config selects the cluster and topic.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// client is the subset of *kgo.Client used here.
type client interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Ping(ctx context.Context) error
	Close()
}

// topicAdmin is the subset of *kadm.Client used by EnsureTopic.
type topicAdmin interface {
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
}

type Producer struct {
	client client
	admin  topicAdmin
	topic  string
}

// NewProducer connects to the brokers in cfg.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: cl, admin: kadm.NewClient(cl), topic: cfg.Topic}, nil
}

func newProducer(cl client, admin topicAdmin, topic string) *Producer {
	return &Producer{client: cl, admin: admin, topic: topic}
}

// EnsureTopic creates the audit topic. An existing topic is not an error.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	resp, err := p.admin.CreateTopics(ctx, partitions, replicas, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Topic is the topic records are produced to.
func (p *Producer) Topic() string { return p.topic }

// Publish sends one payload keyed by key and waits for the acknowledgement.
func (p *Producer) Publish(ctx context.Context, key, eventType string, value []byte) error {
	rec := &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(key),
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: HeaderEventType, Value: []byte(eventType)}},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Ping checks that at least one broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}

// Sink writes each appended event straight to the topic.
type Sink struct {
	producer *Producer
}

func NewSink(producer *Producer) *Sink {
	return &Sink{producer: producer}
}

// Append implements audit.Store.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	raw, err := audit.Encode(uuid.NewString(), event)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, event.Subject, event.Action, raw)
}
