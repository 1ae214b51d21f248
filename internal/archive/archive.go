package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// MinTranscriptLen is the shortest transcript accepted, in characters.
const MinTranscriptLen = 10

var (
	ErrNoTranscript       = errors.New("archive has no .txt transcript")
	ErrTranscriptTooShort = errors.New("transcript is empty or damaged")
)

var zipMagic = []byte("PK\x03\x04")

const utf8BOM = "\ufeff"

// Archive is a loaded chat export: the transcript text and any media
// shipped next to it.
type Archive struct {
	Path       string
	Transcript string
	// TranscriptName is the entry the transcript came from.
	TranscriptName string
	Zipped         bool

	media map[string]*zip.File
}

// Load reads a plain transcript or a zip export. Zip files are recognized
// by content, so a renamed export still loads.
func Load(p string) (*Archive, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrap(err, "read export")
	}
	a, err := FromBytes(filepath.Base(p), data)
	if err != nil {
		return nil, err
	}
	a.Path = p
	return a, nil
}

// FromBytes is Load for data already in memory.
func FromBytes(name string, data []byte) (*Archive, error) {
	if IsZip(data) {
		return fromZip(data)
	}
	text, err := cleanTranscript(data)
	if err != nil {
		return nil, err
	}
	return &Archive{Path: name, TranscriptName: name, Transcript: text}, nil
}

func IsZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

func fromZip(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "open zip")
	}

	a := &Archive{Zipped: true, media: make(map[string]*zip.File)}
	var transcript *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		if transcript == nil && strings.EqualFold(path.Ext(base), ".txt") {
			transcript = f
			continue
		}
		if _, dup := a.media[base]; !dup {
			a.media[base] = f
		}
	}
	if transcript == nil {
		return nil, ErrNoTranscript
	}

	rc, err := transcript.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", transcript.Name)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", transcript.Name)
	}

	a.TranscriptName = transcript.Name
	if a.Transcript, err = cleanTranscript(raw); err != nil {
		return nil, err
	}
	return a, nil
}

func cleanTranscript(raw []byte) (string, error) {
	text := strings.TrimPrefix(string(raw), utf8BOM)
	if len([]rune(strings.TrimSpace(text))) < MinTranscriptLen {
		return "", ErrTranscriptTooShort
	}
	return text, nil
}

// MediaNames returns the base names of the media files, sorted.
func (a *Archive) MediaNames() []string {
	names := make([]string, 0, len(a.media))
	for name := range a.media {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractMedia writes every media file into dir and returns how many were
// written.
func (a *Archive) ExtractMedia(dir string) (int, error) {
	if len(a.media) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create media dir")
	}
	n := 0
	for _, name := range a.MediaNames() {
		if err := extract(a.media[name], filepath.Join(dir, name)); err != nil {
			return n, errors.Wrapf(err, "extract %s", name)
		}
		n++
	}
	return n, nil
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
