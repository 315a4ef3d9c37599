// Package collector runs the single consumer of the bus: it parses every raw
// line and hands completed events to the sinks.
//
// The consumer owns every parser, so the network parser's pending record is
// never shared between goroutines.
package collector

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/bus"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/metrics"
	"github.com/netxfw/netxlog/internal/parser"
	"github.com/netxfw/netxlog/internal/reader"
	"github.com/netxfw/netxlog/internal/shutdown"
	"github.com/netxfw/netxlog/internal/sink"
	"github.com/netxfw/netxlog/pkg/errors"
)

// Drop reasons used as the reason label of netxlog_lines_dropped_total.
const (
	ReasonParse         = "parse"
	ReasonUnknownSource = "unknown_source"
	ReasonOther         = "error"
)

// Options tune the consumer.
type Options struct {
	// DrainOnShutdown parses lines already queued when shutdown is observed.
	DrainOnShutdown bool
	// LogDroppedLines logs every line that produced an error.
	LogDroppedLines bool
}

// Collector wires readers, the bus, the parsers and the sink together.
// Collector 将读取器、总线、解析器和输出连接在一起。
type Collector struct {
	registry *parser.Registry
	sink     sink.Sink
	flag     shutdown.Flag
	readers  []reader.Reader
	bus      *bus.Bus
	opts     Options
	log      *zap.SugaredLogger
	running  atomic.Bool
}

// New builds a collector. When flag is a shutdown.Switch, a cancelled ctx
// triggers it so the forcing actions unblock readers parked in a read;
// a plain Flag must be tied to ctx by the caller.
func New(registry *parser.Registry, s sink.Sink, flag shutdown.Flag, readers []reader.Reader, b *bus.Bus, opts Options, log *zap.SugaredLogger) *Collector {
	return &Collector{
		registry: registry,
		sink:     s,
		flag:     flag,
		readers:  readers,
		bus:      b,
		opts:     opts,
		log:      log,
	}
}

// Run starts every reader and consumes until all readers are done or
// shutdown is observed. It returns after every reader goroutine has joined.
// Run 启动所有读取器并持续消费，直到读取器全部结束或观察到关闭信号；返回前等待所有读取器退出。
func (c *Collector) Run(ctx context.Context) (Stats, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Stats{}, errors.ErrAlreadyRunning
	}

	stats := newStats(len(c.readers))
	var wg sync.WaitGroup

	metrics.ActiveSources.Add(float64(len(c.readers)))
	for _, r := range c.readers {
		c.bus.Register()
		wg.Add(1)
		go func(r reader.Reader) {
			defer wg.Done()
			defer c.bus.Unregister()
			defer metrics.ActiveSources.Dec()
			r.Run(c.bus, c.flag)
		}(r)
	}
	c.bus.Seal()

	c.log.Infof("🚀 Collector started with %d source(s)", len(c.readers))
	reason := c.consume(ctx, &stats)

	// Producers blocked on a full queue get ErrQueueClosed from here on.
	c.bus.Close()
	wg.Wait()
	metrics.QueueDepth.Set(0)

	if c.registry.Network().Pending() {
		stats.Pending = true
		c.log.Infof("Discarding incomplete network record at shutdown")
		c.registry.Network().Reset()
	}

	stats.Elapsed = time.Since(stats.Started)
	c.log.Infof("🛑 Collector stopped (%s): %s", reason, stats.Summary())
	return stats, nil
}

func (c *Collector) consume(ctx context.Context, stats *Stats) string {
	lines := c.bus.Lines()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return "all sources closed"
			}
			c.handle(ctx, line, stats)
		case <-c.flag.Done():
			c.drain(ctx, stats)
			return "shutdown"
		case <-ctx.Done():
			if sw, ok := c.flag.(shutdown.Switch); ok {
				sw.Trigger("context cancelled")
			}
			c.drain(ctx, stats)
			return "context cancelled"
		}
	}
}

// drain handles what is already queued without waiting for more.
func (c *Collector) drain(ctx context.Context, stats *Stats) {
	if !c.opts.DrainOnShutdown {
		return
	}
	lines := c.bus.Lines()
	for budget := c.bus.Cap(); budget > 0; budget-- {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			c.handle(ctx, line, stats)
		default:
			return
		}
	}
}

func (c *Collector) handle(ctx context.Context, line event.RawLine, stats *Stats) {
	metrics.QueueDepth.Set(float64(c.bus.Len()))
	src := line.Source.String()
	st := stats.source(line.Source)
	st.Read++

	ev, err := c.registry.Dispatch(line)
	if err != nil {
		st.Dropped++
		metrics.LinesDropped.WithLabelValues(src, dropReason(err)).Inc()
		if c.opts.LogDroppedLines {
			c.log.Infof("Dropped %s line: %v: %q", src, err, line.Text)
		}
		return
	}
	if ev == nil {
		// first half of a two-line record
		return
	}

	st.Emitted++
	metrics.EventsEmitted.WithLabelValues(src).Inc()
	env := event.NewEnvelope(line, ev)
	if err := c.sink.Send(ctx, env); err != nil {
		stats.SinkErrors++
		c.log.Debugf("Sink rejected event %s: %v", env.ID, err)
	}
}

func dropReason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrParse):
		return ReasonParse
	case stderrors.Is(err, errors.ErrUnknownSource):
		return ReasonUnknownSource
	default:
		return ReasonOther
	}
}
