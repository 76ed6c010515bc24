package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	chatOverride string
)

func main() {
	root := &cobra.Command{
		Use:          "scenecraft",
		Short:        "Event-sourced scene state for branching role-play chats",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "scenecraft.yaml", "Project config file")
	root.PersistentFlags().StringVar(&chatOverride, "chat", "", "Chat id (overrides the config file)")
	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(selectCmd())
	root.AddCommand(projectCmd())
	root.AddCommand(chaptersCmd())
	root.AddCommand(milestonesCmd())
	root.AddCommand(gateCmd())
	root.AddCommand(shouldRunCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
