package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
)

// EnvPath overrides the config file location.
const EnvPath = "CHATLENS_CONFIG"

type Config struct {
	DBPath         string    `toml:"db_path"`
	DataDir        string    `toml:"data_dir"`
	Timezone       string    `toml:"timezone"`
	LogLevel       string    `toml:"log_level"`
	LogFormat      string    `toml:"log_format"`
	Workers        int       `toml:"workers"`
	ProgressStride int       `toml:"progress_stride"`
	Analytics      Analytics `toml:"analytics"`
}

type Analytics struct {
	// EmojiRanges are inclusive [lo, hi] code point pairs.
	EmojiRanges   [][2]int64 `toml:"emoji_ranges"`
	PositiveWords []string   `toml:"positive_words"`
	NegativeWords []string   `toml:"negative_words"`
}

// Default returns the built-in configuration rooted at home.
func Default(home string) *Config {
	ranges := make([][2]int64, 0, len(analytics.DefaultEmojiRanges))
	for _, r := range analytics.DefaultEmojiRanges {
		ranges = append(ranges, [2]int64{int64(r.Lo), int64(r.Hi)})
	}
	return &Config{
		DBPath:         filepath.Join(home, ".config", "chatlens", "chatlens.db"),
		DataDir:        filepath.Join(home, ".config", "chatlens", "sessions"),
		Timezone:       "Local",
		LogLevel:       "info",
		LogFormat:      "console",
		Workers:        4,
		ProgressStride: 5000,
		Analytics:      Analytics{EmojiRanges: ranges},
	}
}

// Load reads ~/.config/chatlens/config.toml, or the file named by
// CHATLENS_CONFIG, over the defaults. A missing file is not an error.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfgPath := os.Getenv(EnvPath)
	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".config", "chatlens", "config.toml")
	}
	return load(cfgPath, home, false)
}

// LoadFile reads an explicit config file, which must exist.
func LoadFile(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return load(path, home, true)
}

func load(cfgPath, home string, required bool) (*Config, error) {
	cfg := Default(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if required {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.DataDir = expandHome(cfg.DataDir, home)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

// Validate checks values the loader cannot type-check.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.ProgressStride <= 0 {
		return fmt.Errorf("progress_stride must be positive, got %d", c.ProgressStride)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if _, err := c.EmojiMatcher(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) EmojiMatcher() (*analytics.EmojiMatcher, error) {
	ranges := make([]analytics.RuneRange, 0, len(c.Analytics.EmojiRanges))
	for _, r := range c.Analytics.EmojiRanges {
		ranges = append(ranges, analytics.RuneRange{Lo: rune(r[0]), Hi: rune(r[1])})
	}
	m, err := analytics.NewEmojiMatcher(ranges)
	if err != nil {
		return nil, fmt.Errorf("analytics.emoji_ranges: %w", err)
	}
	return m, nil
}

func (c *Config) Lexicon() *analytics.Lexicon {
	return analytics.NewLexicon(c.Analytics.PositiveWords, c.Analytics.NegativeWords)
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
