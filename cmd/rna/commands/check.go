package commands

import (
	"fmt"
	"io"

	"github.com/netxfw/rna/internal/plugins/rna"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <directive-file>",
		Short: "Parse a directive file and print the resulting settings",
		// Short: 解析指令文件并打印结果设置
		Long: `Parse an rna directive file the way the inspector does, report every
malformed line and print the effective settings in directive syntax.
The command fails only when the file cannot be read, or with --strict
when any line produced a warning.
按检查器的方式解析 rna 指令文件，报告每个格式错误的行，并以指令语法打印生效设置。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Warnings are printed below instead of logged
			// 警告在下方打印，不写入日志
			res, err := rna.LoadRnaConf(args[0], zap.NewNop().Sugar())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "warning: %v\n", w)
			}
			fmt.Fprintf(out, "# %s: %d lines, %d applied, %d ignored, %d warnings\n",
				args[0], res.Lines, res.Applied, res.Ignored, len(res.Warnings))
			writeDirectives(out, res.Config)

			if strict && len(res.Warnings) > 0 {
				return fmt.Errorf("%d malformed lines in %s", len(res.Warnings), args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any line produces a warning")
	return cmd
}

// writeDirectives prints cfg as a directive file that reproduces it.
// writeDirectives 将 cfg 打印为可重现它的指令文件。
func writeDirectives(w io.Writer, cfg *rna.RnaConfig) {
	banner := 0
	if cfg.EnableBannerGrab {
		banner = 1
	}
	fmt.Fprintf(w, "pnd UpdateTimeout %d\n", cfg.UpdateTimeout)
	fmt.Fprintf(w, "config MaxHostClientApps %d\n", cfg.MaxHostClientApps)
	fmt.Fprintf(w, "config MaxPayloads %d\n", cfg.MaxPayloads)
	fmt.Fprintf(w, "config MaxHostServices %d\n", cfg.MaxHostServices)
	fmt.Fprintf(w, "config MaxHostServiceInfo %d\n", cfg.MaxHostServiceInfo)
	fmt.Fprintf(w, "protoid BannerGrab %d\n", banner)
}
