package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlens/internal/open"
)

func openCmd() *cobra.Command {
	var seq int

	cmd := &cobra.Command{
		Use:   "open <session>",
		Short: "Open the stored transcript in $EDITOR at a message",
		Args:  cobra.ExactArgs(1),
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
			return open.Session(a.db, id, seq)
		},
	}

	cmd.Flags().IntVar(&seq, "seq", -1, "Message to jump to (sequence id)")

	return cmd
}
