package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenecraft/internal/ingest"
)

func ingestCmd() *cobra.Command {
	var detectChapters bool
	var exclude []string
	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Append event batch files (YAML or JSON) to the chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"events"}
			}
			return runIngest(args, ingest.Options{Exclude: exclude, DetectChapters: detectChapters})
		},
	}
	cmd.Flags().BoolVar(&detectChapters, "detect-chapters", false, "Close chapters on location changes and time jumps")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Path to skip (repeatable)")
	return cmd
}

func runIngest(paths []string, options ingest.Options) error {
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

	result, err := ingest.Run(ctx, sess, paths, options)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Files read:      %d\n", result.FilesRead)
	fmt.Fprintf(os.Stdout, "  Files skipped:   %d\n", result.FilesSkipped)
	fmt.Fprintf(os.Stdout, "  Events appended: %d\n", result.Appended)
	fmt.Fprintf(os.Stdout, "  Events rejected: %d\n", result.Rejected)
	if options.DetectChapters {
		fmt.Fprintf(os.Stdout, "  Chapters closed: %d\n", result.ChaptersClosed)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
