package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/earlvking/vipsock/client"
)

func newWatchCommand(socket *string) *cobra.Command {
	var upOnly, downOnly bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream lease up/down notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if upOnly && downOnly {
				return fmt.Errorf("--up-only and --down-only are mutually exclusive")
			}

			c, err := client.Dial(*socket)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return c.Watch(ctx, upOnly, downOnly, func(e client.Entry) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s peer=%s name=%s id=%s\n",
					e.Kind, e.VIP, e.Peer, e.Name, e.ID)
			})
		},
	}

	cmd.Flags().BoolVar(&upOnly, "up-only", false, "Only report leases coming up")
	cmd.Flags().BoolVar(&downOnly, "down-only", false, "Only report leases going down")

	return cmd
}
