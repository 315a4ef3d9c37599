package sink

import (
	"context"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/pkg/errors"
)

// Sink receives completed events.
// Sink 接收已完成的事件。
type Sink interface {
	Name() string
	Send(ctx context.Context, env *event.Envelope) error
	Close() error
}

// Fanout is the single point of contact for every configured sink.
// Fanout 是所有已配置 Sink 的统一入口。
type Fanout struct {
	sinks []Sink
	log   *zap.SugaredLogger
}

// NewFanout wraps sinks in send order.
func NewFanout(log *zap.SugaredLogger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

func (f *Fanout) Name() string {
	return "fanout"
}

// Send hands env to every sink. A failing sink does not stop the others.
func (f *Fanout) Send(ctx context.Context, env *event.Envelope) error {
	var err error
	for _, s := range f.sinks {
		err = multierr.Append(err, s.Send(ctx, env))
	}
	return err
}

// Close closes every sink and returns all close errors.
func (f *Fanout) Close() error {
	var err error
	for _, s := range f.sinks {
		if cerr := s.Close(); cerr != nil {
			f.log.Warnf("⚠️  Failed to close sink %s: %v", s.Name(), cerr)
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// Names lists the wrapped sinks.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.sinks))
	for _, s := range f.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Len returns the number of wrapped sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Build assembles the sinks enabled in cfg. Each sink gets its own buffer
// and, when configured, a filter evaluated before buffering.
// Build 根据配置组装已启用的 Sink；每个 Sink 拥有独立缓冲区和可选过滤器。
func Build(ctx context.Context, cfg config.SinksConfig, fs afero.Fs, log *zap.SugaredLogger) (*Fanout, error) {
	// Compile every filter before opening files or sockets.
	filters := map[string]string{
		"stdout":  enabledFilter(cfg.Stdout.Enabled, cfg.Stdout.Filter),
		"file":    enabledFilter(cfg.File.Enabled, cfg.File.Filter),
		"syslog":  enabledFilter(cfg.Syslog.Enabled, cfg.Syslog.Filter),
		"metrics": enabledFilter(cfg.Metrics.Enabled, cfg.Metrics.Filter),
	}
	programs := make(map[string]*Filter, len(filters))
	for name, src := range filters {
		if src == "" {
			continue
		}
		f, err := CompileFilter(src)
		if err != nil {
			return nil, err
		}
		programs[name] = f
	}

	var built []Sink
	fail := func(err error) (*Fanout, error) {
		for _, s := range built {
			_ = s.Close()
		}
		return nil, err
	}
	add := func(s Sink) {
		var out Sink = NewAsync(s, cfg.BufferSize, cfg.SendTimeoutDuration(), log)
		if f, ok := programs[s.Name()]; ok {
			out = NewFiltered(out, f)
		}
		built = append(built, out)
	}

	if cfg.Stdout.Enabled {
		add(NewStdoutSink(os.Stdout))
	}
	if cfg.File.Enabled {
		add(NewFileSink(cfg.File))
	}
	if cfg.Syslog.Enabled {
		s, err := NewSyslogSink(ctx, cfg.Syslog, log.Named("syslog"))
		if err != nil {
			return fail(err)
		}
		add(s)
	}
	if cfg.Metrics.Enabled {
		s := NewMetricsSink(cfg.Metrics, fs, log.Named("metrics"))
		if err := s.Start(); err != nil {
			return fail(err)
		}
		add(s)
	}

	if len(built) == 0 {
		return nil, errors.NewConfigError("sinks", "no sink enabled")
	}

	fanout := NewFanout(log, built...)
	log.Infof("📤 Sinks initialized: %v", fanout.Names())
	return fanout, nil
}

func enabledFilter(enabled bool, filter string) string {
	if !enabled {
		return ""
	}
	return filter
}
