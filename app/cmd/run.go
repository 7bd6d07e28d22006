package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lexcodex/toolgate/persistence"
	"github.com/lexcodex/toolgate/pipeline"
)

// newRunCmd executes a pipeline manifest and records the run in history.
func newRunCmd() *cobra.Command {
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "run [pipeline.yaml]",
		Short: "Execute a pipeline manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := pipeline.LoadManifest(args[0])
			if err != nil {
				return err
			}
			selector, sink, closeTelemetry := buildSelector(cmd.Context(), globalCfg)
			defer closeTelemetry()

			run, err := manifest.Pipeline(selector).SetTelemetry(sink).Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderRun(manifest.Name, run))
			fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(selector.Metrics()))

			if !noHistory {
				saveRun(manifest.Name, run)
			}
			if !run.Success {
				return fmt.Errorf("pipeline %s failed", manifest.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the run in history")
	return cmd
}

// saveRun records the run report; history failures are logged, never fatal.
func saveRun(name string, run *pipeline.Run) {
	store, err := persistence.NewSQLiteRunStore(globalCfg.History.Path)
	if err != nil {
		log.Printf("run history unavailable: %v", err)
		return
	}
	defer store.Close()
	if err := store.Save(context.Background(), persistence.RecordFromRun(name, run)); err != nil {
		log.Printf("record run: %v", err)
	}
}
