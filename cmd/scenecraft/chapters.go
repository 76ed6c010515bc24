package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scenecraft/internal/chapter"
)

func chaptersCmd() *cobra.Command {
	var closedOnly bool
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "List chapters and their narrative events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChapters(closedOnly)
		},
	}
	cmd.Flags().BoolVar(&closedOnly, "closed", false, "Only list chapters that have ended")
	return cmd
}

func runChapters(closedOnly bool) error {
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

	chapters := sess.Chapters()
	if closedOnly {
		chapters = chapter.Closed(chapters)
	}
	if len(chapters) == 0 {
		fmt.Fprintln(os.Stdout, "No chapters found.")
		return nil
	}

	for _, c := range chapters {
		span := fmt.Sprintf("turns %d-%d, %s", c.StartTurn, c.EndTurn, c.EndReason)
		if c.Open() {
			span = fmt.Sprintf("turns %d-, open", c.StartTurn)
		}
		fmt.Fprintf(os.Stdout, "%d. %s (%s)\n", c.Index, c.Title, span)
		if c.Summary != "" {
			fmt.Fprintf(os.Stdout, "   %s\n", c.Summary)
		}
		for _, beat := range c.Events {
			line := beat.Description
			if len(beat.Subjects) > 0 {
				subjects := make([]string, 0, len(beat.Subjects))
				for _, tag := range beat.Subjects {
					label := tag.Pair.String() + ":" + tag.Subject
					if tag.IsMilestone {
						label += "*"
					}
					subjects = append(subjects, label)
				}
				line = strings.TrimSpace(line + " [" + strings.Join(subjects, ", ") + "]")
			}
			fmt.Fprintf(os.Stdout, "   - turn %d: %s\n", beat.Turn, line)
		}
	}
	return nil
}
