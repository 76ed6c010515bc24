package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func projectCmd() *cobra.Command {
	var turn int
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print the scene state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd.Flags().Changed("turn"), turn)
		},
	}
	cmd.Flags().IntVar(&turn, "turn", 0, "Turn to project to (default: latest)")
	return cmd
}

func runProject(atTurn bool, turn int) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess, db, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	p := sess.Current()
	if atTurn {
		if turn < 0 {
			return fmt.Errorf("--turn must not be negative")
		}
		p = sess.Projection(turn)
	}

	payload, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding projection: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}
