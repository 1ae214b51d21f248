package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			if p := os.Getenv(config.EnvPath); p != "" {
				fmt.Printf("  %s=%s\n", config.EnvPath, p)
			}
			if configPath != "" {
				fmt.Printf("  File: %s\n", configPath)
			}
			fmt.Printf("  Timezone: %s\n", cfg.Timezone)
			fmt.Printf("  Workers:  %d\n", cfg.Workers)
			checkDir("Data dir", cfg.DataDir)

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatlens import' first)")
				return nil
			}

			db, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sessionCount, err := db.SessionCount()
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}
			messageCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}

			fmt.Printf("  Sessions: %s\n", humanize.Comma(int64(sessionCount)))
			fmt.Printf("  Messages: %s\n", humanize.Comma(int64(messageCount)))

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %s\n", humanize.Comma(int64(ftsCount)))
				if ftsCount == messageCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", messageCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Printf("\n=== DB Size: %s ===\n", humanize.Bytes(uint64(info.Size())))
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
