package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvPath, filepath.Join(home, "nope.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "chatlens", "chatlens.db"), cfg.DBPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5000, cfg.ProgressStride)
	assert.Len(t, cfg.Analytics.EmojiRanges, 6)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadFileOverlaysValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, `
db_path = "~/chats/db.sqlite"
timezone = "UTC"
workers = 2
log_format = "json"

[analytics]
emoji_ranges = [[0x1F600, 0x1F64F], [0x1FA70, 0x1FAFF]]
positive_words = ["bacán"]
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "chats", "db.sqlite"), cfg.DBPath)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	m, err := cfg.EmojiMatcher()
	require.NoError(t, err)
	assert.True(t, m.Is(0x1FA70))
	assert.False(t, m.Is(0x2600))

	assert.Equal(t, 1, cfg.Lexicon().Score("qué bacán"))
}

func TestLoadFileRequiresFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadUsesEnvPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvPath, writeConfig(t, `progress_stride = 100`))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.ProgressStride)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown timezone", `timezone = "Mars/Olympus"`},
		{"zero workers", `workers = 0`},
		{"inverted emoji range", "[analytics]\nemoji_ranges = [[0x2700, 0x2600]]"},
		{"bad log format", `log_format = "xml"`},
		{"negative stride", `progress_stride = -1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/h/x/y", expandHome("~/x/y", "/h"))
	assert.Equal(t, "/abs", expandHome("/abs", "/h"))
	assert.Equal(t, "~", expandHome("~", "/h"))
}
