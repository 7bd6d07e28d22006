package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/toolgate/transport"
)

// newStatusCmd reports transport availability for the configured environment.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the gateway and container runtime, report the transport that would be selected",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			probe := transport.NewTransportProbe()
			endpoint := globalCfg.Gateway.Endpoint

			gatewayUp := probe.CheckGateway(ctx, endpoint, globalCfg.Gateway.ProbeTimeout())
			runtimeUp := probe.CheckRuntimeAvailable(ctx)
			mode := transport.ModeDirect
			if gatewayUp {
				mode = transport.ModeGateway
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Environment"))
			fmt.Fprintln(out, renderCheck("gateway", gatewayUp, endpoint))
			fmt.Fprintln(out, renderCheck("container runtime", runtimeUp, ""))
			fmt.Fprintf(out, "  transport: %s\n", string(mode))
			if !gatewayUp && runtimeUp {
				fmt.Fprintln(out, dimStyle.Render("  hint: a container runtime is present; start the gateway to reduce per-call overhead"))
			}
			fmt.Fprintf(out, "  registered servers: %d\n", len(globalCfg.Servers))
			return nil
		},
	}
}
