package sink

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/metrics"
	"github.com/netxfw/netxlog/pkg/errors"
)

const (
	defaultBufferSize  = 1024
	defaultSendTimeout = time.Second
)

// Async decouples a sink from the collector: a bounded buffer drained by one
// goroutine. Send waits at most the send timeout for buffer space.
// Async 通过有界缓冲区和单独的协程将 Sink 与采集器解耦；Send 最多等待发送超时时间。
type Async struct {
	inner   Sink
	queue   chan *event.Envelope
	timeout time.Duration
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	log     *zap.SugaredLogger
}

func NewAsync(inner Sink, size int, timeout time.Duration, log *zap.SugaredLogger) *Async {
	if size <= 0 {
		size = defaultBufferSize
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	a := &Async{
		inner:   inner,
		queue:   make(chan *event.Envelope, size),
		timeout: timeout,
		quit:    make(chan struct{}),
		log:     log,
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *Async) Name() string {
	return a.inner.Name()
}

// Send enqueues env. On timeout the envelope is dropped and counted.
func (a *Async) Send(ctx context.Context, env *event.Envelope) error {
	select {
	case <-a.quit:
		return errors.ErrSinkClosed
	default:
	}

	select {
	case a.queue <- env:
		return nil
	default:
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case a.queue <- env:
		return nil
	case <-timer.C:
		metrics.SinkDropped.WithLabelValues(a.Name()).Inc()
		return errors.NewSinkTimeoutError(a.Name())
	case <-a.quit:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) loop() {
	defer a.wg.Done()
	for {
		select {
		case env := <-a.queue:
			a.write(env)
		case <-a.quit:
			// flush what was accepted before Close
			for {
				select {
				case env := <-a.queue:
					a.write(env)
				default:
					return
				}
			}
		}
	}
}

func (a *Async) write(env *event.Envelope) {
	if err := a.inner.Send(context.Background(), env); err != nil {
		metrics.SinkDropped.WithLabelValues(a.Name()).Inc()
		a.log.Warnf("⚠️  Sink %s failed to write event %s: %v", a.Name(), env.ID, err)
	}
}

// Close flushes the buffer and closes the wrapped sink.
func (a *Async) Close() error {
	var err error
	a.once.Do(func() {
		close(a.quit)
		a.wg.Wait()
		err = a.inner.Close()
	})
	return err
}
