package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/toolgate/transport"
)

// newServersCmd lists registered capability servers and whether each one
// resolves to an installed executable. With a reachable gateway it also shows
// the gateway's server list.
func newServersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List registered capability servers and their install state",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			resolver := buildResolver(globalCfg)

			fmt.Fprintln(out, headerStyle.Render("Registry"))
			if len(resolver.Known()) == 0 {
				fmt.Fprintln(out, dimStyle.Render("  no servers registered"))
			}
			for _, name := range resolver.Known() {
				path, err := resolver.Resolve(name)
				if err != nil {
					fmt.Fprintln(out, renderCheck(name, false, err.Error()))
					continue
				}
				fmt.Fprintln(out, renderCheck(name, true, path))
			}

			probe := transport.NewTransportProbe()
			if !probe.CheckGateway(cmd.Context(), globalCfg.Gateway.Endpoint, globalCfg.Gateway.ProbeTimeout()) {
				return nil
			}
			gateway := transport.NewGatewayClient(globalCfg.Gateway.Endpoint)
			servers, err := gateway.ListServers(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, headerStyle.Render("Gateway"))
			for _, server := range servers {
				fmt.Fprintf(out, "  %s %s\n", server.Name, dimStyle.Render(server.Description))
			}
			return nil
		},
	}
}
