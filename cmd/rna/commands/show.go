package commands

import (
	"github.com/netxfw/rna/internal/engine"
	"github.com/spf13/cobra"
)

func newShowCmd(host *hostConfig) *cobra.Command {
	var directives string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Build the inspectors from the host configuration and show their settings",
		// Short: 根据宿主配置构建检查器并显示其设置
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := host.resolve(overrides{directives: directives})
			if err != nil {
				return err
			}

			m, err := engine.NewManager(engine.Options{Config: cfg, Logger: cmdLogger(cmd)})
			if err != nil {
				return err
			}
			m.Show(cmd.OutOrStdout())
			return m.Close()
		},
	}

	cmd.Flags().StringVarP(&directives, "directives", "d", "", "Directive file, overrides rna.rna_conf_path")
	return cmd
}
