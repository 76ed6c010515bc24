package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenecraft/internal/strategy"
)

func shouldRunCmd() *cobra.Command {
	var turn int
	var role string
	cmd := &cobra.Command{
		Use:   "should-run <step>",
		Short: "Evaluate a step's run strategy for a turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShouldRun(args[0], cmd.Flags().Changed("turn"), turn, strategy.Role(role))
		},
	}
	cmd.Flags().IntVar(&turn, "turn", 0, "Turn being processed (default: the turn after the latest)")
	cmd.Flags().StringVar(&role, "role", string(strategy.RoleGenerated), "Who wrote the turn: human or generated")
	return cmd
}

func runShouldRun(step string, atTurn bool, turn int, role strategy.Role) error {
	if role != strategy.RoleHuman && role != strategy.RoleGenerated {
		return fmt.Errorf("--role must be %q or %q", strategy.RoleHuman, strategy.RoleGenerated)
	}
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

	if !atTurn {
		turn = sess.LastTurn() + 1
	}
	run, err := sess.ShouldRun(step, turn, role)
	if err != nil {
		return err
	}
	if run {
		fmt.Fprintf(os.Stdout, "%s runs at turn %d\n", step, turn)
	} else {
		fmt.Fprintf(os.Stdout, "%s skips turn %d\n", step, turn)
	}
	return nil
}
