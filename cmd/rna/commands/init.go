package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(host *hostConfig) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default host configuration",
		// Short: 写入默认宿主配置
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := host.mgr.GetConfigPath()
			written, err := host.mgr.WriteDefault(force)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s (use --force to overwrite)\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s (%d workers)\n",
				path, host.mgr.GetEngineConfig().Workers)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
