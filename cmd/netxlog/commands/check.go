package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/sink"
	"github.com/netxfw/netxlog/internal/supervisor"
)

// newCheckCmd implements 'check'
// newCheckCmd 实现 'check' 命令
func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test configuration",
		// Short: 测试配置
		Long: `Load and validate the configuration file and show what would run`,
		// Long: 加载并校验配置文件，显示将要运行的内容
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loaded()
			if err != nil {
				return err
			}
			if err := checkFilters(cfg.Sinks); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), opts, cfg)
			return nil
		},
	}
}

func checkFilters(s config.SinksConfig) error {
	for _, f := range []string{s.Stdout.Filter, s.File.Filter, s.Syslog.Filter, s.Metrics.Filter} {
		if f == "" {
			continue
		}
		if _, err := sink.CompileFilter(f); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, opts *rootOptions, cfg *config.GlobalConfig) {
	if opts.manager.FromFile() {
		fmt.Fprintf(w, "✅ Configuration %s is valid\n", opts.configPath)
	} else {
		fmt.Fprintf(w, "ℹ️  No configuration at %s, defaults are valid\n", opts.configPath)
	}

	fmt.Fprintln(w, "Sources:")
	for _, src := range event.Sources {
		sc := cfg.Sources.For(src)
		state := "disabled"
		if sc.Enabled {
			state = "enabled"
		}
		var how string
		if sc.FileBacked() {
			how = fmt.Sprintf("tail %s (from %s)", sc.Path, sc.TailPosition)
		} else if c, ok := supervisor.CommandFor(src); ok {
			how = c.String()
			if supervisor.RequiresRoot(src) {
				how += " [root]"
			}
		}
		fmt.Fprintf(w, "  %-10s %-8s %s\n", src, state, how)
	}

	var sinks []string
	if cfg.Sinks.Stdout.Enabled {
		sinks = append(sinks, "stdout")
	}
	if cfg.Sinks.File.Enabled {
		sinks = append(sinks, "file "+cfg.Sinks.File.Path)
	}
	if cfg.Sinks.Syslog.Enabled {
		sinks = append(sinks, fmt.Sprintf("syslog %s/%s", cfg.Sinks.Syslog.Network, cfg.Sinks.Syslog.Address))
	}
	if cfg.Sinks.Metrics.Enabled {
		sinks = append(sinks, fmt.Sprintf("metrics :%d", cfg.Sinks.Metrics.Port))
	}
	fmt.Fprintf(w, "Sinks: %s\n", strings.Join(sinks, ", "))
	fmt.Fprintf(w, "Queue: %s lines, kill timeout %s\n",
		humanize.Comma(int64(cfg.Collector.QueueSize)), cfg.Collector.KillTimeoutDuration())
}
