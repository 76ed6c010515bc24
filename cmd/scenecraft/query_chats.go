package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func queryChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chats stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryChats()
		},
	}
}

func runQueryChats() error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	chats, err := db.ListChats(ctx)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(os.Stdout, "No chats found.")
		return nil
	}

	for _, chat := range chats {
		fmt.Fprintf(os.Stdout, "%s: %d events, last turn %d, updated %s\n", chat.ChatID, chat.Events, chat.LastTurn, chat.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
