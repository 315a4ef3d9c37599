package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
)

// JSONSink writes one JSON object per line.
// JSONSink 每行写入一个 JSON 对象。
type JSONSink struct {
	name   string
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewStdoutSink writes to w, normally os.Stdout. Close leaves w open.
func NewStdoutSink(w io.Writer) *JSONSink {
	return newJSONSink("stdout", w, nil)
}

// NewFileSink writes to a size-rotated file.
// NewFileSink 写入按大小轮转的文件。
func NewFileSink(cfg config.FileSinkConfig) *JSONSink {
	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return newJSONSink("file", rotator, rotator)
}

func newJSONSink(name string, w io.Writer, closer io.Closer) *JSONSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONSink{name: name, enc: enc, closer: closer}
}

func (s *JSONSink) Name() string {
	return s.name
}

func (s *JSONSink) Send(_ context.Context, env *event.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(env)
}

func (s *JSONSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
