package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/earlvking/vipsock/client"
)

const defaultSocketPath = "/var/run/vipsock.sock"

func newRootCommand() *cobra.Command {
	var socketFlag string

	rootCmd := &cobra.Command{
		Use:           "vipsock",
		Short:         "Query and watch virtual IP leases over a vipsock control socket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", defaultSocketPath, "Path to the control socket")

	rootCmd.AddCommand(newLookupCommand(&socketFlag))
	rootCmd.AddCommand(newDumpCommand(&socketFlag))
	rootCmd.AddCommand(newWatchCommand(&socketFlag))

	return rootCmd
}

func printEntries(cmd *cobra.Command, entries []client.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 8, 2, ' ', 0)
	fmt.Fprintln(w, "VIP\tPEER\tNAME\tID")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.VIP, e.Peer, e.Name, e.ID)
	}
	w.Flush()
}
