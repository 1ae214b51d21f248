package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlens/internal/ingest"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <session>",
		Aliases: []string{"rm"},
		Short:   "Delete a session, its messages and extracted media",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			if err := ingest.Remove(a.db, a.cfg.DataDir, id); err != nil {
				return err
			}
			a.log.Infow("session deleted", "session_id", id)
			fmt.Printf("Deleted %s\n", shortID(id))
			return nil
		},
	}
}
