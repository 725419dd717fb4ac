package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) RecordScoringTask(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) get(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

func TestProcessorQueue_RunsTasks(t *testing.T) {
	var seen sync.Map
	h := HandlerFunc(func(_ context.Context, task ScoringTask) error {
		seen.Store(task.TicketID, true)
		return nil
	})
	rec := &countingRecorder{}
	q := NewProcessorQueue(h, nil, WithWorkers(3), WithRecorder(rec))

	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: ids[i]}))
	}
	q.Shutdown(context.Background())

	for _, id := range ids {
		_, ok := seen.Load(id)
		assert.True(t, ok, "task %s not processed", id)
	}
	assert.Equal(t, 10, rec.get("ok"))
	assert.ErrorIs(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}), ErrQueueClosed)
	q.Shutdown(context.Background())
}

func TestProcessorQueue_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	h := HandlerFunc(func(context.Context, ScoringTask) error {
		if calls.Add(1) < 3 {
			return errors.New("baseline store unavailable")
		}
		return nil
	})
	rec := &countingRecorder{}
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithRetry(3, time.Millisecond), WithRecorder(rec))
	require.NoError(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}))
	q.Shutdown(context.Background())

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, rec.get("retry"))
	assert.Equal(t, 1, rec.get("ok"))
}

func TestProcessorQueue_GivesUp(t *testing.T) {
	var calls atomic.Int32
	h := HandlerFunc(func(context.Context, ScoringTask) error {
		calls.Add(1)
		return errors.New("always")
	})
	rec := &countingRecorder{}
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithRetry(2, 0), WithRecorder(rec))
	require.NoError(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}))
	q.Shutdown(context.Background())

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, rec.get("failed"))
}

func TestProcessorQueue_FullQueueRejects(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h := HandlerFunc(func(context.Context, ScoringTask) error {
		started <- struct{}{}
		<-release
		return nil
	})
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}))
	<-started
	require.NoError(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}))
	assert.ErrorIs(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}), ErrQueueFull)

	close(release)
	q.Shutdown(context.Background())
}

func TestProcessorQueue_ShutdownDeadlineAbandonsRetries(t *testing.T) {
	var calls atomic.Int32
	h := HandlerFunc(func(context.Context, ScoringTask) error {
		calls.Add(1)
		return errors.New("down")
	})
	rec := &countingRecorder{}
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithRetry(5, time.Hour), WithRecorder(rec))
	require.NoError(t, q.DispatchScoring(context.Background(), ScoringTask{TicketID: uuid.New()}))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, rec.get("failed"))
}
