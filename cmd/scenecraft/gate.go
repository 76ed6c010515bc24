package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenecraft/internal/event"
)

func gateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate <a> <b> <proposed>",
		Short: "Show what status a proposed relationship change would produce",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(args[0], args[1], args[2])
		},
	}
}

func runGate(a, b, proposed string) error {
	if !event.NewPair(a, b).Valid() {
		return fmt.Errorf("a and b must name two distinct characters")
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

	current, gated := sess.GateStatus(a, b, proposed)
	fmt.Fprintf(os.Stdout, "%s: %s -> %s (proposed %s)\n", event.NewPair(a, b), current, gated, proposed)
	return nil
}
