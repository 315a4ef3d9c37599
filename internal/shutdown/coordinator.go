// Package shutdown owns the process-wide stop flag.
//
// Setting the flag alone cannot stop a reader parked inside a blocking read,
// so Trigger pairs it with forcing actions (killing subprocesses, stopping
// file tails) that close the streams those reads are waiting on. Both happen
// in one procedure, exactly once.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// Flag is the read side of the coordinator as seen by readers and the consumer.
type Flag interface {
	Stopping() bool
	Done() <-chan struct{}
}

// Switch is a Flag that can also start shutdown. Coordinator implements it.
type Switch interface {
	Flag
	Trigger(reason string)
}

var _ Switch = (*Coordinator)(nil)

type forcer struct {
	name  string
	force func() error
}

// Coordinator turns OS signals into a cooperative shutdown.
// Coordinator 将操作系统信号转换为协作式关闭。
type Coordinator struct {
	log *zap.SugaredLogger

	stopping atomic.Bool
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	forcers []forcer
	reason  string

	sigCh chan os.Signal
}

func New(log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		log:  log,
		done: make(chan struct{}),
	}
}

// Register adds a forcing action run by Trigger. Actions registered after
// Trigger has fired run immediately so late streams are closed too.
func (c *Coordinator) Register(name string, force func() error) {
	c.mu.Lock()
	if !c.stopping.Load() {
		c.forcers = append(c.forcers, forcer{name: name, force: force})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.run(forcer{name: name, force: force})
}

// Stopping reports whether shutdown has been requested.
func (c *Coordinator) Stopping() bool {
	return c.stopping.Load()
}

// Done is closed when shutdown is requested.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Reason is the cause passed to the first Trigger call.
func (c *Coordinator) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Trigger sets the flag and runs every forcing action. Only the first call has
// an effect. Errors from forcing actions are logged, never returned.
func (c *Coordinator) Trigger(reason string) {
	c.once.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.stopping.Store(true)
		forcers := c.forcers
		c.forcers = nil
		c.mu.Unlock()

		close(c.done)
		c.log.Infof("🛑 Shutting down (%s)", reason)

		for _, f := range forcers {
			c.run(f)
		}
	})
}

func (c *Coordinator) run(f forcer) {
	if err := f.force(); err != nil {
		c.log.Warnf("⚠️  Shutdown action %s failed: %v", f.name, err)
	}
}

// Listen triggers shutdown on SIGINT, SIGTERM or when ctx is cancelled.
// Listen 在收到 SIGINT、SIGTERM 或 ctx 取消时触发关闭。
func (c *Coordinator) Listen(ctx context.Context) {
	c.mu.Lock()
	if c.sigCh != nil {
		c.mu.Unlock()
		return
	}
	c.sigCh = make(chan os.Signal, 1)
	sigCh := c.sigCh
	c.mu.Unlock()

	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case s := <-sigCh:
			c.Trigger("signal " + s.String())
		case <-ctx.Done():
			c.Trigger("context cancelled")
		case <-c.done:
		}
	}()
}

// Stop releases the signal registration. Call it after every reader has joined.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sigCh != nil {
		signal.Stop(c.sigCh)
	}
}
