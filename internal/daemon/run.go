// Package daemon assembles the collector pipeline from configuration and runs
// it until every source ends or shutdown is requested.
package daemon

import (
	"context"

	"go.uber.org/zap"

	"github.com/netxfw/netxlog/internal/bus"
	"github.com/netxfw/netxlog/internal/collector"
	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/parser"
	"github.com/netxfw/netxlog/internal/patterns"
	"github.com/netxfw/netxlog/internal/reader"
	"github.com/netxfw/netxlog/internal/shutdown"
	"github.com/netxfw/netxlog/internal/sink"
	"github.com/netxfw/netxlog/internal/supervisor"
	"github.com/netxfw/netxlog/internal/utils/logger"
	"github.com/netxfw/netxlog/pkg/errors"
)

// Run starts every enabled source and blocks until the collector stops.
// Startup failures (usage, privilege, spawn, sinks) are returned before any
// event is read; everything started by then is torn down.
// Run 启动所有已启用的采集源并阻塞直到采集器停止；启动失败时会清理已启动的资源。
func Run(ctx context.Context, opts *DaemonOptions) (collector.Stats, error) {
	opts = opts.withDefaults()
	cfg := opts.Config
	log := logger.Get(ctx)

	sources := cfg.Sources.Enabled()
	if len(sources) == 0 {
		return collector.Stats{}, errors.NewUsageError("no source selected, use -s, -f or -n")
	}
	if err := supervisor.CheckPrivilege(execSources(&cfg.Sources, sources)); err != nil {
		return collector.Stats{}, err
	}

	if path := cfg.Collector.PidFile; path != "" {
		if err := managePidFile(opts.Fs, path); err != nil {
			return collector.Stats{}, err
		}
		defer removePidFile(opts.Fs, path, log)
	}

	out := opts.Sink
	if out == nil {
		fanout, err := sink.Build(ctx, cfg.Sinks, opts.Fs, log.Named("sink"))
		if err != nil {
			return collector.Stats{}, err
		}
		out = fanout
	}

	coord := shutdown.New(log.Named("shutdown"))
	sup := supervisor.New(log.Named("supervisor"), cfg.Collector.KillTimeoutDuration())
	coord.Register("kill subprocesses", sup.KillAll)

	readers, err := startSources(cfg, opts, sources, sup, coord, log)
	if err != nil {
		coord.Trigger("startup failed")
		if rerr := sup.ReapAll(); rerr != nil {
			log.Warnf("⚠️  %v", rerr)
		}
		closeSink(out, log)
		coord.Stop()
		return collector.Stats{}, err
	}

	coord.Listen(ctx)

	col := collector.New(
		parser.NewRegistry(patterns.Default()),
		out,
		coord,
		readers,
		bus.New(cfg.Collector.QueueSize),
		collector.Options{
			DrainOnShutdown: cfg.Collector.DrainOnShutdown,
			LogDroppedLines: cfg.Collector.LogDroppedLines,
		},
		log.Named("collector"),
	)
	stats, err := col.Run(ctx)

	// Sources may have ended on their own; make sure nothing is left running.
	coord.Trigger("collector finished")
	if rerr := sup.ReapAll(); rerr != nil {
		log.Warnf("⚠️  %v", rerr)
	}
	closeSink(out, log)
	coord.Stop()

	return stats, err
}

// startSources spawns a capture tool or opens a tail for every source.
func startSources(cfg *config.GlobalConfig, opts *DaemonOptions, sources []event.Source, sup *supervisor.Supervisor, coord *shutdown.Coordinator, log *zap.SugaredLogger) ([]reader.Reader, error) {
	readerLog := log.Named("reader")
	readers := make([]reader.Reader, 0, len(sources))

	for _, src := range sources {
		sc := cfg.Sources.For(src)
		if sc.FileBacked() {
			tr := reader.NewTailReader(src, sc.Path, sc.TailPosition, readerLog)
			if err := tr.Start(); err != nil {
				return nil, err
			}
			coord.Register("stop tail "+src.String(), tr.Stop)
			readers = append(readers, tr)
			continue
		}

		cmd, ok := opts.CommandFor(src)
		if !ok {
			return nil, errors.NewUsageError("no capture command for source " + src.String())
		}
		p, err := sup.Spawn(cmd)
		if err != nil {
			return nil, err
		}
		onExit := func() {
			// reaped in the background so a lingering child never holds up the consumer
			go func() {
				if err := sup.Reap(p); err != nil {
					log.Warnf("⚠️  %v", err)
				}
			}()
		}
		readers = append(readers, reader.NewSourceReader(src, p.Stdout(), onExit, readerLog))
	}
	return readers, nil
}

// execSources returns the sources that run a capture tool rather than tail a file.
func execSources(sc *config.SourcesConfig, sources []event.Source) []event.Source {
	var out []event.Source
	for _, src := range sources {
		if !sc.For(src).FileBacked() {
			out = append(out, src)
		}
	}
	return out
}

func closeSink(s sink.Sink, log *zap.SugaredLogger) {
	if err := s.Close(); err != nil {
		log.Warnf("⚠️  Failed to close sinks: %v", err)
	}
}
