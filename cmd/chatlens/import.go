package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatlens/internal/ingest"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

func importCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Import chat exports (.txt, .zip or directories of them)",
		Args:  cobra.MinimumNArgs(1),
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
			emoji, err := a.cfg.EmojiMatcher()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			opts := ingest.Options{
				DataDir:        a.cfg.DataDir,
				Location:       loc,
				Emoji:          emoji,
				Lexicon:        a.cfg.Lexicon(),
				Workers:        a.cfg.Workers,
				ProgressStride: a.cfg.ProgressStride,
				Force:          force,
				Logger:         a.log,
			}
			if term.IsTerminal(int(os.Stderr.Fd())) {
				opts.Progress = progressLine()
			}

			stats, outcomes, err := ingest.ImportAll(ctx, a.db, args, opts)
			if opts.Progress != nil {
				fmt.Fprint(os.Stderr, "\r\033[K")
			}
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			for _, o := range outcomes {
				switch {
				case o.Err != nil:
					fmt.Fprintf(os.Stderr, "  error    %s: %v\n", o.Path, o.Err)
				case o.Skipped:
					fmt.Fprintf(os.Stderr, "  skipped  %s\n", o.Path)
				case o.Session != nil:
					fmt.Printf("  imported %s  %s  %s messages\n",
						shortID(o.Session.ID), o.Session.Name, humanize.Comma(int64(o.Session.MessageCount)))
				}
			}
			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-import sessions that are already stored")
	return cmd
}

// progressLine returns a sink factory that redraws one status line on
// stderr. Files parse concurrently, so writes are serialized.
func progressLine() func(path string) parse.ProgressSink {
	var mu sync.Mutex
	return func(path string) parse.ProgressSink {
		name := filepath.Base(path)
		return parse.ProgressFunc(func(percent int) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(os.Stderr, "\r\033[K%s: %d%%", name, percent)
		})
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
