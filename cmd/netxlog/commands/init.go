package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netxfw/netxlog/internal/config"
)

// newInitCmd implements 'init'
// newInitCmd 实现 'init' 命令
func newInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration",
		// Short: 初始化配置
		Long: `Write the commented default configuration file`,
		// Long: 写入带注释的默认配置文件
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefaultConfig(opts.fs, opts.configPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration written to %s\n", opts.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}
