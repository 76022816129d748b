package ingest

import (
	"errors"
	"sync"

	"github.com/psybedev/delta/model"
)

// ErrReceiverClosed is returned by SampleChannel.Send once the receiver side
// has been closed. Adapters treat it as a cooperative shutdown signal rather
// than a fault.
var ErrReceiverClosed = errors.New("ingest: sample channel receiver closed")

// SampleChannel is an unbounded, multi-producer/single-consumer queue of
// TelemetrySample values. Go's native channels are bounded, so producers
// would block once a fixed buffer filled; telemetry loss is tolerated by
// design but producer stalls are not, so the queue grows a plain slice under
// a mutex instead. Overload manifests as memory growth, which is the
// operator's problem, not the adapter's.
type SampleChannel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []model.TelemetrySample
	closed bool
}

// NewSampleChannel allocates an empty, open channel.
func NewSampleChannel() *SampleChannel {
	c := &SampleChannel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues a sample. It never blocks. It fails once the receiver has
// called Close.
func (c *SampleChannel) Send(s model.TelemetrySample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrReceiverClosed
	}
	c.queue = append(c.queue, s)
	c.cond.Signal()
	return nil
}

// Recv blocks until a sample is available or the channel is closed and
// drained, in which case ok is false. Recv is meant for a single consumer;
// calling it from more than one goroutine at a time is undefined.
func (c *SampleChannel) Recv() (s model.TelemetrySample, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.queue) == 0 {
		return model.TelemetrySample{}, false
	}
	s = c.queue[0]
	c.queue = c.queue[1:]
	return s, true
}

// Close signals the receiver side has gone away. Subsequent Send calls
// return ErrReceiverClosed; a Recv blocked on an empty queue wakes and
// returns ok=false.
func (c *SampleChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cond.Broadcast()
}

// Len reports the number of samples currently queued; useful for tests and
// for an operator-facing backlog gauge.
func (c *SampleChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
