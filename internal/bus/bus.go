// Package bus implements the fan-in queue between source readers and the
// single consumer.
//
// The queue is bounded and blocks producers when full. There is no order
// across sources, but each source has exactly one producer so its lines stay
// FIFO end to end.
package bus

import (
	"sync"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/pkg/errors"
)

// DefaultSize matches the buffered channel size used by the log tailer.
const DefaultSize = 10000

// Bus is a multi-producer, single-consumer FIFO of raw lines.
// Bus 是多生产者、单消费者的原始行 FIFO 队列。
type Bus struct {
	lines     chan event.RawLine
	done      chan struct{}
	producers sync.WaitGroup
	sealOnce  sync.Once
	closeOnce sync.Once
}

// New creates a bus holding at most size lines.
func New(size int) *Bus {
	if size <= 0 {
		size = DefaultSize
	}
	return &Bus{
		lines: make(chan event.RawLine, size),
		done:  make(chan struct{}),
	}
}

// Register announces a producer. It must be called before Seal.
func (b *Bus) Register() {
	b.producers.Add(1)
}

// Unregister marks one producer as finished.
func (b *Bus) Unregister() {
	b.producers.Done()
}

// Seal closes the line channel once every registered producer has finished,
// which is how the consumer learns there are no live producers left.
func (b *Bus) Seal() {
	b.sealOnce.Do(func() {
		go func() {
			b.producers.Wait()
			close(b.lines)
		}()
	})
}

// Send enqueues a line, blocking while the queue is full. It returns
// ErrQueueClosed once the consumer has gone away.
func (b *Bus) Send(line event.RawLine) error {
	// Fail fast even if there is room in the buffer.
	select {
	case <-b.done:
		return errors.ErrQueueClosed
	default:
	}

	select {
	case b.lines <- line:
		return nil
	case <-b.done:
		return errors.ErrQueueClosed
	}
}

// Lines is the receive side. It is closed after Seal once all producers are done.
func (b *Bus) Lines() <-chan event.RawLine {
	return b.lines
}

// Close signals that the consumer stopped receiving.
// Close 表示消费者已停止接收。
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

// Closed reports whether Close was called.
func (b *Bus) Closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Len is the number of queued lines.
func (b *Bus) Len() int {
	return len(b.lines)
}

// Cap is the queue capacity.
func (b *Bus) Cap() int {
	return cap(b.lines)
}
