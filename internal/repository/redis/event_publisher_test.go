package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycircle-backend/internal/domain"
)

func TestCallEventChannelPerCircle(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, "call:events:"+a.String(), CallEventChannel(a))
	assert.NotEqual(t, CallEventChannel(a), CallEventChannel(b))
}

func eventMessage(t *testing.T, event *domain.CallEvent) *goredis.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return &goredis.Message{Payload: string(payload)}
}

func TestDecodeCallEventsDropsMalformedMessages(t *testing.T) {
	circleID := uuid.New()
	first := &domain.CallEvent{Type: domain.CallEventJoined, CircleID: circleID, CallID: uuid.New(), UserID: uuid.New()}
	second := &domain.CallEvent{Type: domain.CallEventLeft, CircleID: circleID, CallID: first.CallID, UserID: first.UserID}

	in := make(chan *goredis.Message, 3)
	in <- eventMessage(t, first)
	in <- &goredis.Message{Payload: "{not json"}
	in <- eventMessage(t, second)
	close(in)

	out := decodeCallEvents(context.Background(), in)

	got := make([]*domain.CallEvent, 0, 2)
	for event := range out {
		got = append(got, event)
	}

	require.Len(t, got, 2)
	assert.Equal(t, domain.CallEventJoined, got[0].Type)
	assert.Equal(t, domain.CallEventLeft, got[1].Type)
	assert.Equal(t, circleID, got[0].CircleID)
}

func TestDecodeCallEventsStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// A pending event with no receiver keeps the decoder parked on its
	// send; cancelling must release it instead of leaking the goroutine.
	in := make(chan *goredis.Message, 1)
	in <- eventMessage(t, &domain.CallEvent{Type: domain.CallEventStarted, CircleID: uuid.New()})

	out := decodeCallEvents(ctx, in)
	cancel()
	close(in)

	done := make(chan struct{})
	go func() {
		for range out {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("decoder did not stop after cancel")
	}
}
