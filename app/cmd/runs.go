package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/toolgate/persistence"
)

// newRunsCmd lists recorded pipeline runs.
func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := persistence.NewSQLiteRunStore(globalCfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, dimStyle.Render("no recorded runs"))
				return nil
			}
			fmt.Fprintln(out, headerStyle.Render("Run history"))
			for _, record := range records {
				fmt.Fprintln(out, renderRunRecord(record))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
