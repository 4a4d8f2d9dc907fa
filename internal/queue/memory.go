package queue

import (
	"context"
	"fmt"
	"sync"
)

// memoryBuffer is the per-subject channel capacity
const memoryBuffer = 1024

// MemoryQueue implements Queue interface using in-memory channels. A failed
// message is put back once; it is dropped if the retry fails too.
type MemoryQueue struct {
	channels      map[string]chan memoryMessage
	subscriptions map[string]context.CancelFunc
	closed        bool
	wg            sync.WaitGroup
	mu            sync.Mutex
}

type memoryMessage struct {
	data    []byte
	retried bool
}

// newMemoryQueue creates a new in-memory queue instance
func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		channels:      make(map[string]chan memoryMessage),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

// channel returns the subject's channel. Callers hold q.mu.
func (q *MemoryQueue) channel(subject string) chan memoryMessage {
	ch, exists := q.channels[subject]
	if !exists {
		ch = make(chan memoryMessage, memoryBuffer)
		q.channels[subject] = ch
	}
	return ch
}

// Publish publishes a copy of data to the subject's channel
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	ch := q.channel(subject)
	q.mu.Unlock()

	msg := memoryMessage{data: append([]byte(nil), data...)}
	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// Subscribe consumes the subject's channel in a background goroutine
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ch := q.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-ch:
				if err := handler(msg.data); err != nil && !msg.retried {
					msg.retried = true
					select {
					case ch <- msg:
					default:
					}
				}
			}
		}
	}()

	return nil
}

// Unsubscribe unsubscribes from a channel. Undelivered messages stay queued.
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close stops all subscribers
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Pending returns the number of queued messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, exists := q.channels[subject]; exists {
		return len(ch)
	}
	return 0
}
