//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "drip/pkg/platform/audit"
	"drip/pkg/platform/audit/publishers/kafka"
	"drip/pkg/testutil/containers"
)

type KafkaIntegrationSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaIntegrationSuite(t *testing.T) {
	suite.Run(t, new(KafkaIntegrationSuite))
}

func (s *KafkaIntegrationSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetKafka(s.T()).Brokers
}

func (s *KafkaIntegrationSuite) newProducer() *kafka.Producer {
	p, err := kafka.NewProducer(kafka.Config{
		Brokers:  s.brokers,
		Topic:    "drip.audit." + uuid.NewString()[:8],
		ClientID: "drip-test",
	})
	s.Require().NoError(err)
	s.T().Cleanup(p.Close)
	return p
}

// consume reads n records from the start of topic.
func (s *KafkaIntegrationSuite) consume(topic string, n int) []*kgo.Record {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer cl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	var out []*kgo.Record
	for len(out) < n {
		fetches := cl.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out after %d of %d records", len(out), n)
		fetches.EachRecord(func(r *kgo.Record) { out = append(out, r) })
	}
	return out
}

func (s *KafkaIntegrationSuite) TestEnsureTopicIsIdempotent() {
	ctx := context.Background()
	p := s.newProducer()
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.NoError(p.Ping(ctx))
}

func (s *KafkaIntegrationSuite) TestSinkRecordsDecode() {
	ctx := context.Background()
	p := s.newProducer()
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))

	sink := kafka.NewSink(p)
	event := audit.Event{
		Subject:   "uniqobk8oGh4XBLMqM68K8M2zNu3CdYX7q5go7whQiv",
		Action:    string(audit.EventTokensClaimed),
		Decision:  "granted",
		Amount:    1_249_980,
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(sink.Append(ctx, event))

	records := s.consume(p.Topic(), 1)
	s.Require().Len(records, 1)
	s.Equal(event.Subject, string(records[0].Key))
	s.Require().Len(records[0].Headers, 1)
	s.Equal(kafka.HeaderEventType, records[0].Headers[0].Key)
	s.Equal(event.Action, string(records[0].Headers[0].Value))

	got, err := audit.Decode(records[0].Value)
	s.Require().NoError(err)
	s.Equal(event.Amount, got.Amount)
	s.Equal(audit.CategoryCompliance, got.Category)
	s.True(event.Timestamp.Equal(got.Timestamp))
}
