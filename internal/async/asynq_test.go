package async

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScoringTask(t *testing.T) {
	id := uuid.New()
	task, err := NewScoringTask(ScoringTask{TicketID: id, OrganizationID: "org1"}, AsynqConfig{Queue: "scoring", MaxRetry: 4})
	require.NoError(t, err)
	assert.Equal(t, TypeScoreTicket, task.Type())

	var got ScoringTask
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, id, got.TicketID)
	assert.Equal(t, "org1", got.OrganizationID)
}

func TestHandleScoreTask(t *testing.T) {
	id := uuid.New()
	var got ScoringTask
	rec := &countingRecorder{}
	handler := handleScoreTask(HandlerFunc(func(_ context.Context, task ScoringTask) error {
		got = task
		return nil
	}), rec, nil)

	payload, _ := json.Marshal(ScoringTask{TicketID: id})
	require.NoError(t, handler(context.Background(), asynq.NewTask(TypeScoreTicket, payload)))
	assert.Equal(t, id, got.TicketID)
	assert.Equal(t, 1, rec.get("ok"))

	err := handler(context.Background(), asynq.NewTask(TypeScoreTicket, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleScoreTask_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	handler := handleScoreTask(HandlerFunc(func(context.Context, ScoringTask) error { return boom }), nil, nil)
	payload, _ := json.Marshal(ScoringTask{TicketID: uuid.New()})
	assert.ErrorIs(t, handler(context.Background(), asynq.NewTask(TypeScoreTicket, payload)), boom)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 5*time.Second, retryDelay(0, nil, nil))
	assert.Equal(t, 20*time.Second, retryDelay(2, nil, nil))
	assert.Equal(t, time.Minute, retryDelay(10, nil, nil))
}
