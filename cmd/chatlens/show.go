package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlens/internal/render"
)

func showCmd() *cobra.Command {
	var seq, context int
	var query string

	cmd := &cobra.Command{
		Use:     "show <session>",
		Aliases: []string{"preview"},
		Short:   "Print a conversation, optionally around one message",
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

			out, _, err := render.Conversation(a.db, id, render.Options{
				HitSeq:  seq,
				Context: context,
				Query:   query,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&seq, "seq", -1, "Message to highlight (sequence id)")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after the highlighted one (-1 = all)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
