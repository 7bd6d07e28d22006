package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/toolgate/transport"
)

// newToolsCmd groups gateway capability discovery and loading.
func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Discover and load capabilities through the gateway",
	}
	cmd.AddCommand(newToolsFindCmd(), newToolsLoadCmd())
	return cmd
}

// newToolsFindCmd searches the gateway's capability index.
func newToolsFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find [query]",
		Short: "Search the gateway for tools matching a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway := transport.NewGatewayClient(globalCfg.Gateway.Endpoint)
			tools, err := gateway.FindTools(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tools) == 0 {
				fmt.Fprintln(out, dimStyle.Render("no tools matched"))
				return nil
			}
			for _, tool := range tools {
				fmt.Fprintf(out, "  %s/%s %s\n", tool.Server, tool.Name, dimStyle.Render(tool.Description))
			}
			return nil
		},
	}
}

// newToolsLoadCmd loads tools into the gateway's active context.
func newToolsLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [server] [tool...]",
		Short: "Load tools into the gateway's active context",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway := transport.NewGatewayClient(globalCfg.Gateway.Endpoint)
			if err := gateway.LoadTools(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d tool(s) on %s\n", len(args)-1, args[0])
			return nil
		},
	}
}
