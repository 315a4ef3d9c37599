package commands

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/daemon"
	"github.com/netxfw/netxlog/internal/utils/logger"
	"github.com/netxfw/netxlog/pkg/errors"
)

// RootCmd is the netxlog command line.
var RootCmd = NewRootCmd(afero.NewOsFs())

// rootOptions carries flag values and the loaded config between hooks.
type rootOptions struct {
	fs         afero.Fs
	configPath string
	system     bool
	filesystem bool
	network    bool

	manager *config.ConfigManager
	loadErr error
}

// NewRootCmd builds the command tree over fs.
// NewRootCmd 基于 fs 构建命令树。
func NewRootCmd(fs afero.Fs) *cobra.Command {
	opts := &rootOptions{fs: fs}

	cmd := &cobra.Command{
		Use:   "netxlog",
		Short: "Collect system log, filesystem and network activity as structured events",
		// Short: 将系统日志、文件系统和网络活动采集为结构化事件
		Long: `netxlog runs the macOS capture tools (log stream, fs_usage, tcpdump),
parses their output into structured events and forwards them to the
configured sinks until interrupted.
netxlog 运行 macOS 采集工具（log stream、fs_usage、tcpdump），
将其输出解析为结构化事件并转发到配置的输出，直到被中断。

Filesystem and network capture require root.
文件系统和网络采集需要 root 权限。`,
		Example: `  netxlog -s
  sudo netxlog -f -n
  sudo netxlog -c /etc/netxlog/config.yaml -n`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.load()

			// Logging settings come from the file when it loaded cleanly
			// 仅当配置文件加载成功时使用其中的日志设置
			if cfg := opts.manager.GetConfig(); cfg != nil {
				logger.Init(cfg.Logging)
			} else {
				logger.Init(config.Default().Logging)
			}
			ctx := logger.WithContext(cmd.Context(), logger.Get(nil))
			cmd.SetContext(ctx)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.system, "system", "s", false, "Capture the unified system log (log stream)")
	cmd.Flags().BoolVarP(&opts.filesystem, "filesystem", "f", false, "Capture filesystem activity (fs_usage, requires root)")
	cmd.Flags().BoolVarP(&opts.network, "network", "n", false, "Capture network packets (tcpdump, requires root)")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "Path to configuration file")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newVersionCmd())

	cmd.CompletionOptions.DisableDescriptions = true
	return cmd
}

func (o *rootOptions) load() {
	o.manager = config.NewConfigManager(o.fs, o.configPath)
	o.loadErr = o.manager.LoadConfig()
}

// loaded returns the loaded configuration or the load error.
func (o *rootOptions) loaded() (*config.GlobalConfig, error) {
	if o.loadErr != nil {
		return nil, o.loadErr
	}
	return o.manager.GetConfig(), nil
}

func (o *rootOptions) run(cmd *cobra.Command) error {
	cfg, err := o.loaded()
	if err != nil {
		return err
	}
	cfg.Sources.EnableFromFlags(o.system, o.filesystem, o.network)

	log := logger.Get(cmd.Context())
	if !o.manager.FromFile() {
		log.Infof("ℹ️  No config file at %s, using defaults", o.configPath)
	}

	stats, err := daemon.Run(cmd.Context(), &daemon.DaemonOptions{Config: cfg, Fs: o.fs})
	if err != nil {
		if stderrors.Is(err, errors.ErrUsage) {
			return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
		}
		return err
	}
	log.Infof("👋 %s", stats.Summary())
	return nil
}
