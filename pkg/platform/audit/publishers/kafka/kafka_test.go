package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "drip/pkg/platform/audit"
)

type fakeClient struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (c *fakeClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if c.err == nil {
			c.records = append(c.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: c.err})
	}
	return results
}

func (c *fakeClient) Ping(context.Context) error { return c.err }

func (c *fakeClient) Close() { c.closed = true }

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(Config{Topic: "drip.audit"})
	assert.Error(t, err)
	_, err = NewProducer(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	cl := &fakeClient{}
	p := newProducer(cl, nil, "drip.audit")

	require.NoError(t, p.Publish(context.Background(), "subject-1", "tokens_claimed", []byte(`{}`)))
	require.Len(t, cl.records, 1)
	rec := cl.records[0]
	assert.Equal(t, "drip.audit", rec.Topic)
	assert.Equal(t, []byte("subject-1"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, HeaderEventType, rec.Headers[0].Key)
	assert.Equal(t, []byte("tokens_claimed"), rec.Headers[0].Value)

	p.Close()
	assert.True(t, cl.closed)
}

func TestPublishSurfacesBrokerError(t *testing.T) {
	cl := &fakeClient{err: errors.New("not leader")}
	p := newProducer(cl, nil, "drip.audit")

	err := p.Publish(context.Background(), "k", "e", nil)
	assert.ErrorIs(t, err, cl.err)
	assert.Error(t, p.Ping(context.Background()))
}

func TestSinkAppend(t *testing.T) {
	cl := &fakeClient{}
	sink := NewSink(newProducer(cl, nil, "drip.audit"))

	event := audit.Event{
		Timestamp: time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC),
		Subject:   "subject-1",
		Action:    string(audit.EventTokensClaimed),
		Amount:    7,
	}
	require.NoError(t, sink.Append(context.Background(), event))
	require.Len(t, cl.records, 1)

	got, err := audit.Decode(cl.records[0].Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Amount)
	assert.Equal(t, audit.CategoryCompliance, got.Category)
	assert.Equal(t, []byte("subject-1"), cl.records[0].Key)
}

type fakeAdmin struct {
	resp kadm.CreateTopicResponses
	err  error
	got  []string
}

func (a *fakeAdmin) CreateTopics(_ context.Context, _ int32, _ int16, _ map[string]*string, topics ...string) (kadm.CreateTopicResponses, error) {
	a.got = append(a.got, topics...)
	return a.resp, a.err
}

func TestEnsureTopic(t *testing.T) {
	t.Run("existing topic is fine", func(t *testing.T) {
		admin := &fakeAdmin{resp: kadm.CreateTopicResponses{
			"drip.audit": {Topic: "drip.audit", Err: kerr.TopicAlreadyExists},
		}}
		p := newProducer(&fakeClient{}, admin, "drip.audit")
		require.NoError(t, p.EnsureTopic(context.Background(), 3, 1))
		assert.Equal(t, []string{"drip.audit"}, admin.got)
	})

	t.Run("broker refusal surfaces", func(t *testing.T) {
		admin := &fakeAdmin{resp: kadm.CreateTopicResponses{
			"drip.audit": {Topic: "drip.audit", Err: kerr.PolicyViolation},
		}}
		p := newProducer(&fakeClient{}, admin, "drip.audit")
		assert.ErrorIs(t, p.EnsureTopic(context.Background(), 3, 1), kerr.PolicyViolation)
	})

	t.Run("request failure surfaces", func(t *testing.T) {
		p := newProducer(&fakeClient{}, &fakeAdmin{err: errors.New("no brokers")}, "drip.audit")
		assert.ErrorContains(t, p.EnsureTopic(context.Background(), 1, 1), "no brokers")
	})
}
