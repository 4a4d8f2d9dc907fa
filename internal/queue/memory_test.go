package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := newMemoryQueue()
	defer func() { _ = q.Close() }()

	c := newCollector()
	if err := q.Subscribe("autoets.jobs", c.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ctx := context.Background()
	for _, msg := range []string{"job-1", "job-2"} {
		if err := q.Publish(ctx, "autoets.jobs", []byte(msg)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	if got := c.next(t, time.Second); got != "job-1" {
		t.Errorf("expected job-1, got %s", got)
	}
	if got := c.next(t, time.Second); got != "job-2" {
		t.Errorf("expected job-2, got %s", got)
	}
}

func TestMemoryQueue_PublishCopiesData(t *testing.T) {
	q := newMemoryQueue()
	defer func() { _ = q.Close() }()

	data := []byte("original")
	if err := q.Publish(context.Background(), "s", data); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	copy(data, "mutated!")

	c := newCollector()
	if err := q.Subscribe("s", c.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if got := c.next(t, time.Second); got != "original" {
		t.Errorf("expected original payload, got %s", got)
	}
}

func TestMemoryQueue_RetriesOnce(t *testing.T) {
	q := newMemoryQueue()
	defer func() { _ = q.Close() }()

	var calls atomic.Int32
	done := make(chan struct{}, 2)
	err := q.Subscribe("s", func(data []byte) error {
		calls.Add(1)
		done <- struct{}{}
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := q.Publish(context.Background(), "s", []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 deliveries, got %d", n)
	}
}

func TestMemoryQueue_SubscriptionErrors(t *testing.T) {
	q := newMemoryQueue()

	if err := q.Subscribe("s", newCollector().handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := q.Subscribe("s", newCollector().handle); err == nil {
		t.Error("expected error on duplicate subscription")
	}
	if err := q.Unsubscribe("other"); err == nil {
		t.Error("expected error unsubscribing unknown subject")
	}
	if err := q.Unsubscribe("s"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}

	_ = q.Close()
	if err := q.Publish(context.Background(), "s", []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
	if err := q.Subscribe("s", newCollector().handle); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestMemoryQueue_UnsubscribeKeepsPending(t *testing.T) {
	q := newMemoryQueue()
	defer func() { _ = q.Close() }()

	if err := q.Subscribe("s", newCollector().handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := q.Unsubscribe("s"); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := q.Publish(context.Background(), "s", []byte("later")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if n := q.Pending("s"); n != 1 {
		t.Errorf("expected 1 pending message, got %d", n)
	}
}

func TestMemoryQueue_ChannelFull(t *testing.T) {
	q := newMemoryQueue()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	for i := 0; i < memoryBuffer; i++ {
		if err := q.Publish(ctx, "s", []byte("x")); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	if err := q.Publish(ctx, "s", []byte("x")); err == nil {
		t.Error("expected error when channel is full")
	}
}
