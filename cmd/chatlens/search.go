package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatlens/internal/search"
	"github.com/Zuo-Peng/chatlens/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var session, author, since string
	var limit, perSession int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search across imported conversations",
		Long: `Search message text using FTS5 (LIKE for CJK queries). On a terminal this
opens an interactive browser; otherwise output is TSV:
  sessionId, seq, timestamp, author, session, snippet

Example with fzf:
  chatlens search "$*" | fzf --ansi --delimiter='\t' --with-nth=3.. \
    --preview 'chatlens show {1} --seq {2} --context 5 --query {q}' \
    --bind 'enter:execute(chatlens open {1} --seq {2})'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := search.Options{
				Author:     author,
				Since:      since,
				Limit:      limit,
				PerSession: perSession,
			}
			if session != "" {
				if opts.Session, err = a.resolve(session); err != nil {
					return err
				}
			}

			var query string
			if len(args) > 0 {
				query = args[0]
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(a.db, query, opts)
			}

			opts.Query = query
			var results []search.Result
			if strings.TrimSpace(query) == "" {
				results, err = search.Recent(a.db, opts)
			} else {
				results, err = search.Search(a.db, opts)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s%s%s\t%s\t%s\n",
					r.SessionID,
					r.Seq,
					sColorDim, r.Timestamp, sColorReset,
					sColorBlue, tsvField(r.Author), sColorReset,
					tsvField(r.SessionName),
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Only search this session (id or prefix)")
	cmd.Flags().StringVar(&author, "author", "", "Filter by author name")
	cmd.Flags().StringVar(&since, "since", "", "Only messages since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().IntVar(&perSession, "per-session", 0, "Max results per session (0 = no cap)")

	return cmd
}
