package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

var version = "dev"

// configPath is set by the --config flag.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "chatlens",
		Short:         "chatlens - import, search and analyze exported chat transcripts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/chatlens/config.toml)")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// app bundles what every subcommand needs.
type app struct {
	cfg *config.Config
	log logger.Logger
	db  *store.DB
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warnw("close db", "err", err)
	}
	_ = a.log.Sync()
}

// resolve turns a session id or unique id prefix into a full id.
func (a *app) resolve(ref string) (string, error) {
	return a.db.ResolveID(ref)
}
