// Package reader moves lines from a source's output onto the bus.
//
// A reader runs on its own goroutine and blocks only on its read. It checks
// the shutdown flag once per line, but a reader parked inside a read only
// wakes up when its stream closes, which is why shutdown also kills the
// subprocess (or stops the tail) behind it.
package reader

import (
	"bufio"
	stderrors "errors"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/bus"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/metrics"
	"github.com/netxfw/netxlog/internal/shutdown"
	"github.com/netxfw/netxlog/pkg/errors"
)

// Reader is one producer of the bus.
type Reader interface {
	Source() event.Source
	Run(b *bus.Bus, flag shutdown.Flag)
}

// SourceReader reads newline-delimited text from a subprocess stream.
// SourceReader 从子进程输出流中读取以换行分隔的文本。
type SourceReader struct {
	src    event.Source
	r      *lineReader
	onExit func()
	log    *zap.SugaredLogger
}

// NewSourceReader reads from r. onExit, if set, runs once when Run returns
// and is where the supervisor reaps the child.
func NewSourceReader(src event.Source, r io.Reader, onExit func(), log *zap.SugaredLogger) *SourceReader {
	return &SourceReader{
		src:    src,
		r:      newLineReader(r),
		onExit: onExit,
		log:    log.With("source", src.String()),
	}
}

func (sr *SourceReader) Source() event.Source {
	return sr.src
}

// Run reads until EOF, a read error, a closed bus or shutdown.
func (sr *SourceReader) Run(b *bus.Bus, flag shutdown.Flag) {
	if sr.onExit != nil {
		defer sr.onExit()
	}

	var n uint64
	for !flag.Stopping() {
		text, err := sr.r.next()
		if text != "" || err == nil {
			if sendErr := sr.send(b, text); sendErr != nil {
				sr.log.Infof("Queue closed after %d lines, reader exiting", n)
				return
			}
			n++
		}
		if err != nil {
			if err == io.EOF || stderrors.Is(err, io.ErrClosedPipe) || stderrors.Is(err, os.ErrClosed) {
				sr.log.Infof("Stream closed after %d lines", n)
			} else {
				sr.log.Warnf("⚠️  Read failed after %d lines: %v", n, err)
			}
			return
		}
	}
	sr.log.Debugf("Shutdown observed after %d lines", n)
}

func (sr *SourceReader) send(b *bus.Bus, text string) error {
	err := b.Send(event.RawLine{Source: sr.src, Text: text, ReadAt: time.Now()})
	if err != nil {
		if stderrors.Is(err, errors.ErrQueueClosed) {
			return err
		}
		sr.log.Warnf("⚠️  Send failed: %v", err)
		return err
	}
	metrics.LinesRead.WithLabelValues(sr.src.String()).Inc()
	return nil
}

// lineReader yields lines without their terminator. A final fragment without
// a newline is returned together with the terminating error.
type lineReader struct {
	br *bufio.Reader
}

const readBufferSize = 64 * 1024

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, readBufferSize)}
}

func (lr *lineReader) next() (string, error) {
	line, err := lr.br.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), err
}
