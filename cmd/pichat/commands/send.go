package commands

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pichat/internal/metrics"
	"pichat/internal/mqtt"
)

// send <message>: publish a one-off chat message to the peer's inbox. Handy
// for poking a running node from the shell.
func sendCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a chat message to the peer node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = cfg.PeerID
			}

			met, err := metrics.New(prometheus.NewRegistry())
			if err != nil {
				return err
			}

			broker := mqtt.New(cfg.NodeID, cfg.Broker, cfg.Timing.PresenceTTL, met, log)
			if err := broker.Connect(cmd.Context()); err != nil {
				return err
			}
			defer broker.Close()

			msg, err := broker.SendChat(cmd.Context(), to, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("sent %s to %s\n", msg.ID, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "receiving node ID (default: configured peer)")
	return cmd
}
