package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func milestonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestones",
		Short: "List the first occurrence of each relationship subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestones()
		},
	}
}

func runMilestones() error {
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

	milestones := sess.Milestones()
	if len(milestones) == 0 {
		fmt.Fprintln(os.Stdout, "No milestones found.")
		return nil
	}
	for _, m := range milestones {
		fmt.Fprintf(os.Stdout, "turn %d: %s %s\n", m.Turn, m.Pair, m.Subject)
	}
	return nil
}
