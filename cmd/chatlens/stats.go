package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlens/internal/report"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <session>",
		Short: "Show activity and sentiment analytics for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			id, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			session, err := a.db.GetSession(id)
			if err != nil {
				return err
			}
			msgs, err := a.db.GetMessages(id)
			if err != nil {
				return err
			}

			return report.Build(session.Name, msgs, session.Analytics, loc).WriteText(os.Stdout)
		},
	}
}
