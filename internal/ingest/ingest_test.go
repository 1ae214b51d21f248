package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlens/internal/archive"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

const transcript = `01/02/23, 10:00 - Alice: hola, gracias 😀
01/02/23, 10:01 - Bob: IMG-0001.jpg (file attached)
01/02/23, 10:02 - Bob: <Media omitted>
01/02/23, 10:05 - Alice: ok
`

func setup(t *testing.T) (*store.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "chatlens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dir
}

func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"WhatsApp Chat.txt": transcript,
		"IMG-0001.jpg":      "jpeg",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestImportZip(t *testing.T) {
	db, dir := setup(t)
	src := filepath.Join(dir, "export.zip")
	writeZip(t, src)

	opts := Options{DataDir: filepath.Join(dir, "data"), Location: time.UTC}
	out, err := Import(context.Background(), db, src, opts)
	require.NoError(t, err)
	require.NotNil(t, out.Session)

	s := out.Session
	assert.Equal(t, SessionID(transcript), s.ID)
	assert.Equal(t, "Alice & Bob", s.Name)
	assert.Equal(t, 4, s.MessageCount)
	assert.Equal(t, 1, s.Analytics.SentimentScore["Alice"])

	msgs, err := db.GetMessages(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "IMG-0001.jpg", msgs[1].Attachment)
	assert.True(t, msgs[2].MediaOmitted)

	media, err := os.ReadFile(filepath.Join(s.MediaDir, "IMG-0001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(media))

	stored, err := os.ReadFile(s.TranscriptPath)
	require.NoError(t, err)
	assert.Equal(t, transcript, string(stored))

	again, err := Import(context.Background(), db, src, opts)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	opts.Force = true
	forced, err := Import(context.Background(), db, src, opts)
	require.NoError(t, err)
	assert.False(t, forced.Skipped)
}

func TestImportUnrecognized(t *testing.T) {
	db, dir := setup(t)
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("shopping list: eggs, milk, bread"), 0o644))

	_, err := Import(context.Background(), db, src, Options{})
	assert.True(t, errors.Is(err, ErrUnrecognizedFormat))
}

func TestImportTooShort(t *testing.T) {
	db, dir := setup(t)
	src := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(src, []byte("hi"), 0o644))

	_, err := Import(context.Background(), db, src, Options{})
	assert.True(t, errors.Is(err, archive.ErrTranscriptTooShort))
}

func TestImportAll(t *testing.T) {
	db, dir := setup(t)
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	writeZip(t, filepath.Join(in, "a.zip"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.txt"),
		[]byte("[01/02/23, 09:00:00] Carla: buenos días\n[01/02/23, 09:01:00] Dan: hola"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "c.txt"), []byte("not a chat at all, sorry"), 0o644))

	var (
		mu    sync.Mutex
		final = map[string]int{}
	)
	opts := Options{
		DataDir:  filepath.Join(dir, "data"),
		Location: time.UTC,
		Workers:  3,
		Progress: func(path string) parse.ProgressSink {
			return parse.ProgressFunc(func(p int) {
				mu.Lock()
				final[filepath.Base(path)] = p
				mu.Unlock()
			})
		},
	}

	stats, outcomes, err := ImportAll(context.Background(), db, []string{in}, opts)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 3, Imported: 2, Errors: 1}, stats)
	require.Len(t, outcomes, 3)
	assert.True(t, errors.Is(outcomes[2].Err, ErrUnrecognizedFormat))
	assert.Equal(t, "Carla & Dan", outcomes[1].Session.Name)
	assert.Equal(t, 100, final["a.zip"])
	assert.Equal(t, 100, final["b.txt"])

	stats, _, err = ImportAll(context.Background(), db, []string{in}, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)

	n, err := db.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRemove(t *testing.T) {
	db, dir := setup(t)
	src := filepath.Join(dir, "export.zip")
	writeZip(t, src)
	data := filepath.Join(dir, "data")

	out, err := Import(context.Background(), db, src, Options{DataDir: data, Location: time.UTC})
	require.NoError(t, err)

	require.NoError(t, Remove(db, data, out.Session.ID))
	_, err = os.Stat(SessionDir(data, out.Session.ID))
	assert.True(t, os.IsNotExist(err))
	assert.True(t, errors.Is(Remove(db, data, out.Session.ID), store.ErrSessionNotFound))
}

func TestSessionName(t *testing.T) {
	assert.Equal(t, "A & B", SessionName([]string{"A", "B", "C"}, "x.txt"))
	assert.Equal(t, "A", SessionName([]string{"A"}, "x.txt"))
	assert.Equal(t, "WhatsApp Chat", SessionName(nil, "media/WhatsApp Chat.txt"))
}

func TestSessionIDIsStable(t *testing.T) {
	assert.Equal(t, SessionID("abc"), SessionID("abc"))
	assert.NotEqual(t, SessionID("abc"), SessionID("abd"))
}
