package main

import (
	"github.com/spf13/cobra"

	"github.com/earlvking/vipsock/client"
)

func newDumpCommand(socket *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "List every current virtual IP lease",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial(*socket)
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.Dump()
			if err != nil {
				return err
			}
			printEntries(cmd, entries)
			return nil
		},
	}
}
