package commands

import (
	"fmt"

	"github.com/netxfw/rna/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the current version of rna`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rna %s (inspector api v%d)\n", version.Version, version.InspectorAPI)
		},
	}
}
