package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <turn> <branch>",
		Short: "Make a branch (swipe) canonical for a turn",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			turn, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid turn %q: %w", args[0], err)
			}
			branch, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid branch %q: %w", args[1], err)
			}
			return runSelect(turn, branch)
		},
	}
}

func runSelect(turn, branch int) error {
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

	if err := sess.SelectBranch(ctx, turn, branch); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Turn %d now follows branch %d.\n", turn, branch)
	return nil
}
