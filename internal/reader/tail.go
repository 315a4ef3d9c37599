package reader

import (
	"io"
	"sync"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/bus"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/metrics"
	"github.com/netxfw/netxlog/internal/shutdown"
)

// Tail positions accepted by TailReader.
const (
	PositionStart = "start"
	PositionEnd   = "end"
)

// TailReader follows a file that a capture tool writes to, instead of a pipe.
// It follows rotation and keeps waiting for new lines until stopped.
// TailReader 跟踪采集工具写入的文件而不是管道，支持日志轮转。
type TailReader struct {
	src      event.Source
	path     string
	position string
	poll     bool
	log      *zap.SugaredLogger

	mu      sync.Mutex
	t       *tail.Tail
	stopped bool
}

// NewTailReader creates a reader for path. position is "start" or "end".
func NewTailReader(src event.Source, path, position string, log *zap.SugaredLogger) *TailReader {
	if position == "" {
		position = PositionEnd
	}
	return &TailReader{
		src:      src,
		path:     path,
		position: position,
		log:      log.With("source", src.String(), "path", path),
	}
}

// WithPolling switches from inotify to polling, useful where inotify is unavailable.
func (tr *TailReader) WithPolling() *TailReader {
	tr.poll = true
	return tr
}

func (tr *TailReader) Source() event.Source {
	return tr.src
}

func (tr *TailReader) location() *tail.SeekInfo {
	if tr.position == PositionStart {
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
	}
	return &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
}

// Start opens the file. It is separate from Run so open errors surface at startup.
func (tr *TailReader) Start() error {
	t, err := tail.TailFile(tr.path, tail.Config{
		Location:  tr.location(),
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      tr.poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}

	tr.mu.Lock()
	tr.t = t
	stopped := tr.stopped
	tr.mu.Unlock()

	if stopped {
		return t.Stop()
	}
	return nil
}

// Stop ends the tail; Run returns once the line channel drains.
// It is registered as a shutdown forcing action.
func (tr *TailReader) Stop() error {
	tr.mu.Lock()
	t := tr.t
	already := tr.stopped
	tr.stopped = true
	tr.mu.Unlock()

	if t == nil || already {
		return nil
	}
	return t.Stop()
}

func (tr *TailReader) Run(b *bus.Bus, flag shutdown.Flag) {
	tr.mu.Lock()
	t := tr.t
	tr.mu.Unlock()
	if t == nil {
		tr.log.Warnf("⚠️  Tail not started")
		return
	}
	defer t.Cleanup()

	var n uint64
	for line := range t.Lines {
		if flag.Stopping() {
			break
		}
		if line.Err != nil {
			tr.log.Warnf("⚠️  Error reading %s: %v", tr.path, line.Err)
			continue
		}
		if err := b.Send(event.RawLine{Source: tr.src, Text: line.Text, ReadAt: line.Time}); err != nil {
			tr.log.Infof("Queue closed after %d lines, tail exiting", n)
			_ = tr.Stop()
			return
		}
		metrics.LinesRead.WithLabelValues(tr.src.String()).Inc()
		n++
	}
	tr.log.Infof("Tail finished after %d lines", n)
}
