package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/earlvking/vipsock/client"
)

func newLookupCommand(socket *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <vip>",
		Short: "Show who currently holds a virtual IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial(*socket)
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.Lookup(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no lease for %s\n", args[0])
				return nil
			}
			printEntries(cmd, entries)
			return nil
		},
	}
}
