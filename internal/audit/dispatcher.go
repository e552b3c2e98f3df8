package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples session-event emission from sink latency. Events are
// handed to a single forwarding goroutine over a bounded channel, so Login
// and CheckAuth never wait on a slow sink unless backpressure mode is
// configured. A nil Dispatcher is valid and discards everything.
type Dispatcher struct {
	sink       Sink
	events     chan Event
	quit       chan struct{}
	forwarding sync.WaitGroup
	dropped    atomic.Uint64
	closing    atomic.Bool
	closeOnce  sync.Once
	dropIfFull bool
}

// NewDispatcher starts the forwarding goroutine. Returns nil when auditing
// is disabled; callers rely on nil-receiver safety instead of checking.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, buffer),
		quit:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}

	d.forwarding.Add(1)
	go d.forward()

	return d
}

func (d *Dispatcher) forward() {
	defer d.forwarding.Done()

	for {
		select {
		case event := <-d.events:
			d.deliver(event)
		case <-d.quit:
			d.drain()
			return
		}
	}
}

// drain flushes everything already buffered so Close never loses accepted
// events.
func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	d.sink.Emit(context.Background(), event)
}

// Emit queues an event for delivery. In drop mode a full buffer increments
// the drop counter instead of blocking; otherwise Emit waits until the
// buffer has room, the context ends, or the dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		case <-d.quit:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops accepting events, flushes the buffer, and waits for the
// forwarding goroutine to exit. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closing.Store(true)
		close(d.quit)
		d.forwarding.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was
// full. Always zero outside drop mode.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
