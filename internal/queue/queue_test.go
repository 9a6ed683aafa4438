package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	evt := ScanEvent{
		SessionID:  "sess-1",
		StudentID:  "stu-1",
		Status:     "present",
		RecordedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, q.Publish(ctx, evt))

	events, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case got := <-events:
		require.Equal(t, evt, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewInMemory(0)
	err := q.Publish(ctx, ScanEvent{SessionID: "sess-1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestInMemoryConsumeUnblocksWithPendingEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewInMemory(1)
	require.NoError(t, q.Publish(ctx, ScanEvent{SessionID: "sess-1"}))

	events, err := q.Consume(ctx)
	require.NoError(t, err)

	// Cancel while the forwarding goroutine may be mid-send; it must still
	// exit and close the channel instead of blocking on the handed-off event.
	time.Sleep(10 * time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("consume goroutine did not exit after cancel")
		}
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewInMemory(1)
	events, err := q.Consume(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-events:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("consume channel not closed after cancel")
	}
}
