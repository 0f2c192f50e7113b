package commands

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pichat/internal/display"
	"pichat/internal/metrics"
	"pichat/internal/mqtt"
	"pichat/internal/tools"
)

// staticStatus is the status provider used when no chat engine is running:
// an MCP session drives the node directly, so it is never in chat mode.
type staticStatus struct{}

func (staticStatus) Mode() string    { return "idle" }
func (staticStatus) Subject() string { return "" }

// mcp: expose the node's tools over the Model Context Protocol on stdio so
// external LLM clients (desktop assistants, inspector tooling) can drive the
// display and talk to the peer.
func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the node's tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs must not mix with the stdio protocol stream.
			log.SetOutput(os.Stderr)

			met, err := metrics.New(prometheus.NewRegistry())
			if err != nil {
				return err
			}

			screen := display.NewConsole(os.Stderr, cfg.DisplayWidth)
			broker := mqtt.New(cfg.NodeID, cfg.Broker, cfg.Timing.PresenceTTL, met, log)
			if err := broker.Connect(cmd.Context()); err != nil {
				return err
			}
			defer broker.Close()

			registry := tools.NewRegistry(cfg.NodeID, cfg.PeerID, screen, broker, staticStatus{}, met, log)
			return tools.ServeStdio(tools.NewServer(registry))
		},
	}
}
