package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported sessions, most recent conversation first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.db.ListSessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(os.Stderr, "No sessions. Run 'chatlens import <path>' first.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMESSAGES\tLAST MESSAGE")
			for _, s := range sessions {
				last := "-"
				if !s.LastAt.IsZero() {
					last = fmt.Sprintf("%s (%s)", s.LastAt.Local().Format("2006-01-02"), humanize.Time(s.LastAt))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(s.ID), s.Name, humanize.Comma(int64(s.MessageCount)), last)
			}
			return w.Flush()
		},
	}
}
