package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenecraft/internal/event"
	"scenecraft/internal/eventlog"
)

func queryEventsCmd() *cobra.Command {
	var all bool
	var kind string
	var upTo int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the chat's events as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := -1
			if cmd.Flags().Changed("up-to") {
				limit = upTo
			}
			return runQueryEvents(all, event.Kind(kind), limit)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include events off the canonical path, in insertion order")
	cmd.Flags().StringVar(&kind, "kind", "", "Only print events of this kind")
	cmd.Flags().IntVar(&upTo, "up-to", 0, "Only print active events up to this turn")
	return cmd
}

func runQueryEvents(all bool, kind event.Kind, upTo int) error {
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

	events := sess.ActiveEvents()
	if all {
		events = sess.AllEvents()
	} else if upTo >= 0 {
		events = eventlog.UpTo(events, upTo)
	}

	enc := json.NewEncoder(os.Stdout)
	printed := 0
	for _, e := range events {
		if kind != "" && e.Kind() != kind {
			continue
		}
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encoding event %s: %w", e.ID, err)
		}
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(os.Stderr, "No events found.")
	}
	return nil
}
