package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "drip/pkg/platform/audit"
	"drip/pkg/platform/audit/store/memory"
)

type PublisherSuite struct {
	suite.Suite
	store   *memory.InMemoryStore
	subject string
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.subject = uuid.NewString()
}

func (s *PublisherSuite) listed(pub *Publisher) []audit.Event {
	events, err := pub.List(context.Background(), s.subject)
	s.Require().NoError(err)
	return events
}

func (s *PublisherSuite) TestSyncEmitIsVisibleImmediately() {
	pub := NewPublisher(s.store)
	defer pub.Close()

	s.Require().NoError(pub.Emit(context.Background(), audit.Event{Subject: s.subject, Action: string(audit.EventUserRegistered)}))
	s.Require().NoError(pub.Emit(context.Background(), audit.Event{Subject: s.subject, Action: string(audit.EventTokensClaimed), Amount: 42}))
	s.Require().NoError(pub.Emit(context.Background(), audit.Event{Subject: uuid.NewString(), Action: string(audit.EventUserRegistered)}))

	events := s.listed(pub)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventUserRegistered), events[0].Action)
	s.Equal(uint64(42), events[1].Amount)
}

func (s *PublisherSuite) TestFillsTimestampAndCategory() {
	pub := NewPublisher(s.store)
	defer pub.Close()

	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	before := time.Now()
	s.Require().NoError(pub.Emit(context.Background(), audit.Event{Subject: s.subject, Action: string(audit.EventTokensClaimed)}))
	s.Require().NoError(pub.Emit(context.Background(), audit.Event{Subject: s.subject, Action: string(audit.EventThrottled), Timestamp: fixed}))

	events := s.listed(pub)
	s.Require().Len(events, 2)
	s.False(events[0].Timestamp.Before(before))
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal(fixed, events[1].Timestamp)
	s.Equal(audit.CategorySecurity, events[1].Category)
}

func (s *PublisherSuite) TestAsyncCloseFlushes() {
	pub := NewPublisher(s.store, WithAsyncBuffer(16))
	for range 5 {
		s.Require().NoError(pub.Emit(context.Background(), audit.Event{Subject: s.subject, Action: string(audit.EventTokensClaimed)}))
	}
	pub.Close()
	pub.Close()

	s.Len(s.listed(pub), 5)
}

func (s *PublisherSuite) TestAsyncBufferFull() {
	gate := newGatedStore()
	pub := NewPublisher(gate, WithAsyncBuffer(1))
	defer pub.Close()
	defer close(gate.release)

	event := audit.Event{Subject: s.subject, Action: string(audit.EventUserRegistered)}
	s.Require().NoError(pub.Emit(context.Background(), event))
	<-gate.entered // drain goroutine holds the first event
	s.Require().NoError(pub.Emit(context.Background(), event))

	s.ErrorIs(pub.Emit(context.Background(), event), ErrBufferFull)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ErrorIs(pub.Emit(ctx, event), context.Canceled)
}

func (s *PublisherSuite) TestSyncPropagatesStoreErrors() {
	pub := NewPublisher(failingStore{})
	err := pub.Emit(context.Background(), audit.Event{Subject: s.subject})
	s.EqualError(err, "disk full")
}

func (s *PublisherSuite) TestListRequiresReader() {
	pub := NewPublisher(failingStore{})
	_, err := pub.List(context.Background(), s.subject)
	s.ErrorIs(err, ErrNotReadable)
}

// gatedStore blocks every Append until release is closed.
type gatedStore struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedStore) Append(context.Context, audit.Event) error {
	g.entered <- struct{}{}
	<-g.release
	return nil
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }
