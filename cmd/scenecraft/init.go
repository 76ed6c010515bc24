package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new scenecraft project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			chat := chatOverride
			if chat == "" {
				chat = "main"
			}
			return runInit(projectName, chat, dsn)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://scenecraft.db", "Database DSN (sqlite:// or postgres://)")
	return cmd
}

func runInit(projectName, chat, dsn string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	configContents := fmt.Sprintf(`project: %q
version: 1
chat: %q

database:
  dsn: %q

snapshots:
  interval: 10
  max_entries: 64

chapters:
  time_jump: 6h

gate:
  friendly: [shared_laughter, gift, compliment, helped, shared_meal]
  close: [confession, secret_shared, comfort, defended, vulnerability]
  intimate: [intimate_kiss, intimate_embrace, intimate_heated, intimate_sex, declaration_of_love]

steps:
  - name: time
    strategy: {kind: always}
  - name: location
    strategy: {kind: always}
  - name: climate
    strategy: {kind: since_last_event, n: 5, event: climate, subkind: changed}
  - name: outfits
    strategy: {kind: since_last_output, n: 3, step: outfits}
  - name: relationships
    strategy: {kind: generated_turn}
`, projectName, chat, dsn)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.MkdirAll(filepath.Join(filepath.Dir(configPath), "events"), 0o755); err != nil {
		return fmt.Errorf("creating events directory: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Wrote %s; put event batches under ./events/\n", configPath)
	return nil
}
