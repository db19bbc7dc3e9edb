package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/netxfw/rna/internal/engine"
	"github.com/netxfw/rna/internal/plugins/types"
	"github.com/netxfw/rna/internal/utils/fmtutil"
	"github.com/netxfw/rna/pkg/sdk"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newReplayCmd(host *hostConfig) *cobra.Command {
	var (
		directives string
		workers    int
		filter     string
		reassemble bool
	)

	cmd := &cobra.Command{
		Use:   "replay <capture>...",
		Short: "Run the inspectors over pcap or pcapng files and print their counters",
		// Short: 在 pcap 或 pcapng 文件上运行检查器并打印其计数器
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg, err := host.resolve(overrides{
				directives: directives,
				engine: func(e *types.EngineConfig) {
					if flags.Changed("workers") {
						e.Workers = workers
					}
					if flags.Changed("filter") {
						e.Filter = filter
					}
					if flags.Changed("reassemble") {
						e.Reassemble = reassemble
					}
				},
			})
			if err != nil {
				return err
			}

			log := cmdLogger(cmd)
			m, err := engine.NewManager(engine.Options{Config: cfg, Logger: log, Bus: eventLog(log)})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := m.Start(ctx); err != nil {
				return multierr.Append(err, m.Close())
			}
			st, replayErr := m.Replay(ctx, args...)
			m.Stop()

			printReplay(cmd.OutOrStdout(), st, m.Stats())
			if replayErr != nil && !errors.Is(replayErr, context.Canceled) {
				return multierr.Append(replayErr, m.Close())
			}
			return m.Close()
		},
	}

	cmd.Flags().StringVarP(&directives, "directives", "d", "", "Directive file, overrides rna.rna_conf_path")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of worker threads, overrides engine.workers")
	cmd.Flags().StringVar(&filter, "filter", "", "Eligibility filter expression, overrides engine.filter")
	cmd.Flags().BoolVar(&reassemble, "reassemble", false, "Deliver rebuilt TCP stream packets, overrides engine.reassemble")
	return cmd
}

// eventLog returns a bus that writes every host event to the debug log.
func eventLog(log *zap.SugaredLogger) *sdk.DefaultEventBus {
	bus := sdk.NewEventBus()
	bus.OnPanic = func(e sdk.Event, r any) {
		log.Errorf("Event handler for %s panicked: %v", e.Type, r)
	}
	for _, t := range []sdk.EventType{sdk.EventTypeConfigReload, sdk.EventTypeWorkerStopped} {
		bus.Subscribe(t, func(e sdk.Event) { log.Debugf("Event: %s", e) })
	}
	return bus
}

func printReplay(w io.Writer, st engine.ReplayStats, stats []engine.InspectorStats) {
	fmt.Fprintf(w, "Files: %d  Frames: %s  IP packets: %s  Non-IP: %s  Rebuilt: %s\n", st.Files,
		fmtutil.FormatCount(uint64(st.Frames)), fmtutil.FormatCount(uint64(st.Packets)),
		fmtutil.FormatCount(uint64(st.NonIP)), fmtutil.FormatCount(uint64(st.Rebuilt)))
	if st.Filtered > 0 {
		fmt.Fprintf(w, "Filtered: %s (%s)\n", fmtutil.FormatCount(uint64(st.Filtered)),
			fmtutil.FormatPercent(uint64(st.Filtered), uint64(st.Packets+st.Rebuilt)))
	}
	for _, s := range stats {
		fmt.Fprintf(w, "%s\n", s.Name)
		for i, peg := range s.Pegs {
			if i < len(s.Counts) {
				fmt.Fprintf(w, "    %-20s %s\n", peg.Name+":", fmtutil.FormatCount(s.Counts[i]))
			}
		}
		if s.Profile.Checks > 0 {
			fmt.Fprintf(w, "    %-20s %s checks, %s avg\n", "eval:",
				fmtutil.FormatCount(s.Profile.Checks), fmtutil.FormatLatency(s.Profile.Average()))
		}
	}
}
