package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"opaque/pkg/events"
	"opaque/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStatsService мок для service.StatsServiceInterface
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) HandleEvent(ctx context.Context, event events.ReviewEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStatsService) RebuildSnapshot(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeReader отдает заранее заданные сообщения, затем блокируется до отмены ctx
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	commitErr error
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	offsets := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		offsets = append(offsets, m.Offset)
	}
	return offsets
}

func newTestConsumer(reader *fakeReader, svc *MockStatsService) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		statsSvc: svc,
		topic:    "review_events",
		groupID:  "stats-worker",
		backoff:  time.Millisecond,
	}
}

func eventMessage(t *testing.T, offset int64, event events.ReviewEvent) kafka.Message {
	data, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "review_events", Offset: offset, Value: data}
}

// runUntil запускает Run и отменяет ctx, когда cond выполнится
func runUntil(t *testing.T, c *KafkaConsumer, cond func() bool) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

// ===================== NewKafkaConsumer Tests =====================

func TestNewKafkaConsumer(t *testing.T) {
	svc := new(MockStatsService)

	consumer := NewKafkaConsumer([]string{"localhost:9092"}, "review_events", "stats-worker", 1, 10e6, svc)

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "review_events", consumer.topic)
	assert.Equal(t, "stats-worker", consumer.groupID)

	assert.NoError(t, consumer.Close())
}

// ===================== Run Tests =====================

func TestKafkaConsumer_Run_CommitsProcessedMessages(t *testing.T) {
	svc := new(MockStatsService)
	created := events.ReviewEvent{EventType: events.ReviewCreated, ReviewID: "r-1", Rating: 5}
	deleted := events.ReviewEvent{EventType: events.ReviewDeleted, ReviewID: "r-2", Rating: 1}
	svc.On("HandleEvent", mock.Anything, mock.MatchedBy(func(e events.ReviewEvent) bool {
		return e.ReviewID == "r-1" || e.ReviewID == "r-2"
	})).Return(nil)

	reader := &fakeReader{messages: []kafka.Message{
		eventMessage(t, 10, created),
		eventMessage(t, 11, deleted),
	}}

	runUntil(t, newTestConsumer(reader, svc), func() bool {
		return len(reader.committedOffsets()) == 2
	})

	assert.Equal(t, []int64{10, 11}, reader.committedOffsets())
	svc.AssertNumberOfCalls(t, "HandleEvent", 2)
}

func TestKafkaConsumer_Run_ReportsLag(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("HandleEvent", mock.Anything, mock.Anything).Return(nil)

	msg := eventMessage(t, 11, events.ReviewEvent{EventType: events.ReviewCreated, ReviewID: "r-1", Rating: 4})
	msg.Partition = 7
	msg.HighWaterMark = 20

	reader := &fakeReader{messages: []kafka.Message{msg}}
	runUntil(t, newTestConsumer(reader, svc), func() bool {
		return len(reader.committedOffsets()) == 1
	})

	lag := metrics.KafkaConsumerLag.WithLabelValues(serviceName, "review_events", "stats-worker", "7")
	assert.Equal(t, float64(8), testutil.ToFloat64(lag))
}

func TestKafkaConsumer_Run_SkipsMalformedMessage(t *testing.T) {
	svc := new(MockStatsService)
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 3, Value: []byte(`not json`)},
		{Offset: 4, Value: []byte(`{"event_type":"ORDER_CREATED"}`)},
	}}

	runUntil(t, newTestConsumer(reader, svc), func() bool {
		return len(reader.committedOffsets()) == 2
	})

	svc.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
}

func TestKafkaConsumer_Run_RetriesUntilSuccess(t *testing.T) {
	svc := new(MockStatsService)
	event := events.ReviewEvent{EventType: events.ReviewUpdated, ReviewID: "r-1", Rating: 4, PreviousRating: 2}
	svc.On("HandleEvent", mock.Anything, mock.Anything).Return(errors.New("redis down")).Twice()
	svc.On("HandleEvent", mock.Anything, mock.Anything).Return(nil).Once()

	reader := &fakeReader{messages: []kafka.Message{eventMessage(t, 7, event)}}

	runUntil(t, newTestConsumer(reader, svc), func() bool {
		return len(reader.committedOffsets()) == 1
	})

	assert.Equal(t, []int64{7}, reader.committedOffsets())
	svc.AssertNumberOfCalls(t, "HandleEvent", 3)
}

func TestKafkaConsumer_Run_DoesNotCommitFailedMessageOnShutdown(t *testing.T) {
	svc := new(MockStatsService)
	event := events.ReviewEvent{EventType: events.ReviewCreated, ReviewID: "r-1", Rating: 3}
	var attempts atomic.Int32
	svc.On("HandleEvent", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { attempts.Add(1) }).
		Return(errors.New("redis down"))

	reader := &fakeReader{messages: []kafka.Message{eventMessage(t, 1, event)}}
	consumer := newTestConsumer(reader, svc)

	runUntil(t, consumer, func() bool {
		return attempts.Load() >= 2
	})

	assert.Empty(t, reader.committedOffsets())
}

func TestKafkaConsumer_Run_CommitErrorDoesNotStopConsumer(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("HandleEvent", mock.Anything, mock.Anything).Return(nil)

	reader := &fakeReader{
		messages: []kafka.Message{
			eventMessage(t, 1, events.ReviewEvent{EventType: events.ReviewCreated, ReviewID: "r-1", Rating: 2}),
			eventMessage(t, 2, events.ReviewEvent{EventType: events.ReviewCreated, ReviewID: "r-2", Rating: 2}),
		},
		commitErr: errors.New("coordinator not available"),
	}

	runUntil(t, newTestConsumer(reader, svc), func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.messages) == 0
	})

	svc.AssertNumberOfCalls(t, "HandleEvent", 2)
	assert.Empty(t, reader.committedOffsets())
}

// ===================== CronScheduler Tests =====================

func TestCronScheduler_Start_RunsInitialRebuild(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("RebuildSnapshot", mock.Anything).Return(nil).Once()

	scheduler := NewCronScheduler(svc)
	err := scheduler.Start(context.Background(), "@every 1h")
	require.NoError(t, err)
	defer scheduler.Stop()

	assert.Len(t, scheduler.cron.Entries(), 1)
	svc.AssertExpectations(t)
}

func TestCronScheduler_Start_InitialRebuildErrorIsNotFatal(t *testing.T) {
	svc := new(MockStatsService)
	svc.On("RebuildSnapshot", mock.Anything).Return(errors.New("db down")).Once()

	scheduler := NewCronScheduler(svc)
	err := scheduler.Start(context.Background(), "@every 1h")
	defer scheduler.Stop()

	assert.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	svc := new(MockStatsService)

	scheduler := NewCronScheduler(svc)
	err := scheduler.Start(context.Background(), "every ten minutes")

	assert.Error(t, err)
	assert.Empty(t, scheduler.cron.Entries())
	svc.AssertNotCalled(t, "RebuildSnapshot", mock.Anything)
}

func TestCronScheduler_Start_CanceledContextSkipsRebuild(t *testing.T) {
	svc := new(MockStatsService)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scheduler := NewCronScheduler(svc)
	require.NoError(t, scheduler.Start(ctx, "@every 1h"))
	defer scheduler.Stop()

	svc.AssertNotCalled(t, "RebuildSnapshot", mock.Anything)
}
