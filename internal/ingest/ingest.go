package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/archive"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/scan"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

// ErrUnrecognizedFormat means a transcript loaded but no header line matched.
var ErrUnrecognizedFormat = errors.New("no chat messages recognized")

// sessionNamespace seeds the name-based session ids.
var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chatlens:session"))

type Options struct {
	// DataDir holds one directory per session with its transcript and media.
	DataDir        string
	Location       *time.Location
	Emoji          *analytics.EmojiMatcher
	Lexicon        *analytics.Lexicon
	Workers        int
	ProgressStride int
	// Force re-imports sessions that are already stored.
	Force bool
	// Progress, if set, returns the sink for one file's parse.
	Progress func(path string) parse.ProgressSink
	Logger   logger.Logger
}

type Stats struct {
	Scanned  int
	Imported int
	Skipped  int
	Errors   int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d imported=%d skipped=%d errors=%d",
		s.Scanned, s.Imported, s.Skipped, s.Errors)
}

// Outcome is the result of importing one file.
type Outcome struct {
	Path    string
	Session *store.Session
	Skipped bool
	Err     error
}

// pending is a parsed file waiting to be written.
type pending struct {
	path    string
	id      string
	archive *archive.Archive
	result  *parse.Result
}

// SessionID derives the id of a transcript from its text, so the same
// export always maps to the same session.
func SessionID(transcript string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(transcript)).String()
}

// ImportAll imports every export found under paths. Files are loaded and
// parsed in parallel and written one at a time. A failing file is
// reported in its Outcome and does not stop the batch.
func ImportAll(ctx context.Context, db *store.DB, paths []string, opts Options) (Stats, []Outcome, error) {
	var stats Stats
	opts = withDefaults(opts)

	files, err := scan.Expand(paths)
	if err != nil {
		return stats, nil, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	outcomes := make([]Outcome, len(files))
	parsed := make([]*pending, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, fi := range files {
		i, fi := i, fi
		outcomes[i].Path = fi.Path
		g.Go(func() error {
			p, skipped, err := prepare(gctx, db, fi.Path, opts)
			if err != nil {
				// cancellation aborts the batch, anything else is per file
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Skipped = skipped
			parsed[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, outcomes, err
	}

	for i := range outcomes {
		o := &outcomes[i]
		switch {
		case o.Err != nil:
			stats.Errors++
			opts.Logger.Warnw("import failed", "path", o.Path, "err", o.Err)
			continue
		case o.Skipped:
			stats.Skipped++
			opts.Logger.Debugw("already imported", "path", o.Path)
			continue
		}

		s, err := commit(db, parsed[i], opts)
		if err != nil {
			o.Err = err
			stats.Errors++
			opts.Logger.Warnw("store failed", "path", o.Path, "err", err)
			continue
		}
		o.Session = s
		stats.Imported++
		opts.Logger.Infow("imported", "session_id", s.ID, "path", o.Path, "messages", s.MessageCount)
	}
	return stats, outcomes, nil
}

// Import imports a single export file.
func Import(ctx context.Context, db *store.DB, path string, opts Options) (Outcome, error) {
	opts = withDefaults(opts)
	out := Outcome{Path: path}

	p, skipped, err := prepare(ctx, db, path, opts)
	if err != nil {
		return out, err
	}
	if skipped {
		out.Skipped = true
		return out, nil
	}
	s, err := commit(db, p, opts)
	if err != nil {
		return out, err
	}
	out.Session = s
	return out, nil
}

func withDefaults(opts Options) Options {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return opts
}

// prepare loads and parses one file. skipped is true when the transcript is
// already stored and Force is off.
func prepare(ctx context.Context, db *store.DB, path string, opts Options) (*pending, bool, error) {
	a, err := archive.Load(path)
	if err != nil {
		return nil, false, err
	}
	id := SessionID(a.Transcript)

	if !opts.Force {
		size, err := db.SessionSize(id)
		if err != nil {
			return nil, false, err
		}
		if size == int64(len(a.Transcript)) {
			return nil, true, nil
		}
	}

	popts := parse.Options{
		Attachments:    a.MediaNames(),
		Location:       opts.Location,
		Emoji:          opts.Emoji,
		Lexicon:        opts.Lexicon,
		ProgressStride: opts.ProgressStride,
	}
	if opts.Progress != nil {
		popts.Progress = opts.Progress(path)
	}

	start := time.Now()
	res, err := parse.Run(ctx, a.Transcript, popts)
	if err != nil {
		return nil, false, err
	}
	if len(res.Messages) == 0 {
		return nil, false, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnrecognizedFormat)
	}
	opts.Logger.Debugw("parsed", "path", path, "lines", res.Lines, "messages", len(res.Messages),
		"took", time.Since(start))

	return &pending{path: path, id: id, archive: a, result: res}, false, nil
}

// commit writes the session files and rows.
func commit(db *store.DB, p *pending, opts Options) (*store.Session, error) {
	s := store.Session{
		ID:           p.id,
		Name:         SessionName(p.result.Participants(), p.archive.TranscriptName),
		SourcePath:   p.path,
		ImportedAt:   time.Now(),
		Participants: p.result.Participants(),
		Analytics:    p.result.Analytics,
		Size:         int64(len(p.archive.Transcript)),
	}
	msgs := p.result.Messages
	s.FirstAt = msgs[0].Timestamp
	s.LastAt = msgs[len(msgs)-1].Timestamp

	var atts []store.Attachment
	if opts.DataDir != "" {
		dir := SessionDir(opts.DataDir, p.id)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
		s.TranscriptPath = filepath.Join(dir, "transcript.txt")
		if err := os.WriteFile(s.TranscriptPath, []byte(p.archive.Transcript), 0o644); err != nil {
			return nil, fmt.Errorf("write transcript: %w", err)
		}

		if names := p.archive.MediaNames(); len(names) > 0 {
			s.MediaDir = filepath.Join(dir, "media")
			if _, err := p.archive.ExtractMedia(s.MediaDir); err != nil {
				return nil, err
			}
			for _, name := range names {
				atts = append(atts, store.Attachment{Name: name, Path: filepath.Join(s.MediaDir, name)})
			}
		}
	}

	if err := db.SaveSession(s, msgs, atts); err != nil {
		return nil, err
	}
	s.MessageCount = len(msgs)
	return &s, nil
}

// SessionName names a session after its two most active participants,
// falling back to the transcript file name.
func SessionName(participants []string, transcriptName string) string {
	if len(participants) > 2 {
		participants = participants[:2]
	}
	if len(participants) > 0 {
		return strings.Join(participants, " & ")
	}
	base := filepath.Base(transcriptName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func SessionDir(dataDir, id string) string {
	return filepath.Join(dataDir, id)
}

// Remove deletes a session and its files.
func Remove(db *store.DB, dataDir, id string) error {
	if err := db.DeleteSession(id); err != nil {
		return err
	}
	if dataDir == "" {
		return nil
	}
	return os.RemoveAll(SessionDir(dataDir, id))
}
