package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect stored events from the CLI",
	}
	cmd.AddCommand(queryEventsCmd())
	cmd.AddCommand(queryChatsCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}
