package daemon

import (
	"github.com/spf13/afero"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/sink"
	"github.com/netxfw/netxlog/internal/supervisor"
)

// DaemonOptions configuration options for the daemon
type DaemonOptions struct {
	// Config is the loaded configuration. If nil, defaults are used.
	Config *config.GlobalConfig

	// Fs backs the PID file and the metrics textfile. If nil, the OS filesystem is used.
	Fs afero.Fs

	// CommandFor overrides the capture command for a source.
	// If nil, supervisor.CommandFor is used.
	CommandFor func(event.Source) (supervisor.Command, bool)

	// Sink replaces the sinks built from Config.Sinks.
	Sink sink.Sink
}

func (o *DaemonOptions) withDefaults() *DaemonOptions {
	out := DaemonOptions{}
	if o != nil {
		out = *o
	}
	if out.Config == nil {
		out.Config = config.Default()
	}
	if out.Fs == nil {
		out.Fs = afero.NewOsFs()
	}
	if out.CommandFor == nil {
		out.CommandFor = supervisor.CommandFor
	}
	return &out
}
