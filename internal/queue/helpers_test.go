package queue

import (
	"testing"
	"time"
)

// collector records delivered payloads for assertions.
type collector struct {
	ch chan string
}

func newCollector() *collector {
	return &collector{ch: make(chan string, 64)}
}

func (c *collector) handle(data []byte) error {
	c.ch <- string(data)
	return nil
}

// next waits for one delivery.
func (c *collector) next(t *testing.T, timeout time.Duration) string {
	t.Helper()
	select {
	case msg := <-c.ch:
		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

// none asserts that nothing is delivered within d.
func (c *collector) none(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case msg := <-c.ch:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(d):
	}
}
