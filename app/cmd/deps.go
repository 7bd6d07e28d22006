package cmd

import (
	"context"
	"log"

	"github.com/lexcodex/toolgate/config"
	"github.com/lexcodex/toolgate/telemetry"
	"github.com/lexcodex/toolgate/transport"
)

// buildTelemetry assembles the configured event sinks. The returned closer
// flushes the JSON file sink when one is configured.
func buildTelemetry(cfg *config.Config) (telemetry.Sink, func()) {
	var sinks []telemetry.Sink
	closer := func() {}
	if cfg.Telemetry.Log {
		sinks = append(sinks, telemetry.LogSink{})
	}
	if cfg.Telemetry.File != "" {
		fileSink, err := telemetry.NewJSONFileSink(cfg.Telemetry.File)
		if err != nil {
			log.Printf("telemetry file %s unavailable: %v", cfg.Telemetry.File, err)
		} else {
			sinks = append(sinks, fileSink)
			closer = func() { _ = fileSink.Close() }
		}
	}
	switch len(sinks) {
	case 0:
		return telemetry.Nop{}, closer
	case 1:
		return sinks[0], closer
	default:
		return telemetry.Multiplex{Sinks: sinks}, closer
	}
}

// buildResolver constructs the registry-backed resolver from config.
func buildResolver(cfg *config.Config) *transport.BinaryResolver {
	return transport.NewBinaryResolver(cfg.Servers, cfg.BinDirs...)
}

// buildSelector probes the environment once and returns the fixed-transport
// selector, the shared telemetry sink, and the sink closer.
func buildSelector(ctx context.Context, cfg *config.Config) (*transport.TransportSelector, telemetry.Sink, func()) {
	sink, closer := buildTelemetry(cfg)
	selector := transport.NewTransportSelector(ctx,
		transport.NewTransportProbe(),
		transport.NewGatewayClient(cfg.Gateway.Endpoint),
		transport.NewProcessInvoker(),
		buildResolver(cfg),
		transport.SelectorOptions{
			ProbeTimeout: cfg.Gateway.ProbeTimeout(),
			Telemetry:    sink,
		})
	return selector, sink, closer
}
