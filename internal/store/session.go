package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

const timeLayout = time.RFC3339

type Session struct {
	ID             string
	Name           string
	SourcePath     string
	TranscriptPath string
	MediaDir       string
	ImportedAt     time.Time
	FirstAt        time.Time
	LastAt         time.Time
	MessageCount   int
	Participants   []string
	Analytics      analytics.Snapshot
	Size           int64
}

// Attachment is a media file extracted from an export.
type Attachment struct {
	Name string
	Path string
}

// SessionSize returns the stored transcript size, or -1 when the session
// does not exist.
func (d *DB) SessionSize(id string) (int64, error) {
	var size int64
	err := d.db.QueryRow("SELECT size FROM sessions WHERE session_id = ?", id).Scan(&size)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "get session size")
	}
	return size, nil
}

// SaveSession replaces a session together with its messages and attachments.
func (d *DB) SaveSession(s Session, msgs []parse.Message, atts []Attachment) error {
	participants, err := json.Marshal(nonNil(s.Participants))
	if err != nil {
		return errors.Wrap(err, "encode participants")
	}
	snap, err := json.Marshal(s.Analytics)
	if err != nil {
		return errors.Wrap(err, "encode analytics")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if err := deleteSessionTx(tx, s.ID); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, name, source_path, transcript_path, media_dir, imported_at,
		     first_at, last_at, message_count, participants, analytics, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.SourcePath, s.TranscriptPath, s.MediaDir,
		formatTime(s.ImportedAt), formatTime(s.FirstAt), formatTime(s.LastAt),
		len(msgs), string(participants), string(snap), s.Size,
	)
	if err != nil {
		return errors.Wrap(err, "insert session")
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (session_id, seq, ts, raw_date, raw_time, author, content, attachment,
		     system, media_omitted, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return errors.Wrap(err, "prepare message insert")
	}
	defer stmt.Close()

	for _, m := range msgs {
		_, err := stmt.Exec(
			s.ID, m.SequenceID, formatTime(m.Timestamp), m.RawDate, m.RawTime, m.Author, m.Content,
			m.Attachment, m.System, m.MediaOmitted, m.LineNumber,
		)
		if err != nil {
			return errors.Wrapf(err, "insert message %d", m.SequenceID)
		}
	}

	for _, a := range atts {
		if _, err := tx.Exec("INSERT OR REPLACE INTO attachments (session_id, name, path) VALUES (?, ?, ?)",
			s.ID, a.Name, a.Path); err != nil {
			return errors.Wrapf(err, "insert attachment %s", a.Name)
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

const sessionColumns = `session_id, name, source_path, transcript_path, media_dir, imported_at,
	first_at, last_at, message_count, participants, analytics, size`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s                         Session
		imported, first, last     string
		participants, snapshotRaw string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.SourcePath, &s.TranscriptPath, &s.MediaDir, &imported,
		&first, &last, &s.MessageCount, &participants, &snapshotRaw, &s.Size); err != nil {
		return nil, err
	}
	s.ImportedAt = parseTime(imported)
	s.FirstAt = parseTime(first)
	s.LastAt = parseTime(last)
	if err := json.Unmarshal([]byte(participants), &s.Participants); err != nil {
		return nil, errors.Wrap(err, "decode participants")
	}
	s.Analytics = analytics.NewSnapshot()
	if err := json.Unmarshal([]byte(snapshotRaw), &s.Analytics); err != nil {
		return nil, errors.Wrap(err, "decode analytics")
	}
	return &s, nil
}

func (d *DB) GetSession(id string) (*Session, error) {
	s, err := scanSession(d.db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE session_id = ?", id))
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}
	return s, nil
}

// ResolveID expands ref, a full session id or a unique prefix of one.
func (d *DB) ResolveID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.Wrap(ErrSessionNotFound, "empty session reference")
	}
	rows, err := d.db.Query("SELECT session_id FROM sessions WHERE substr(session_id, 1, ?) = ? LIMIT 2", len(ref), ref)
	if err != nil {
		return "", errors.Wrap(err, "resolve session")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", errors.Wrap(err, "scan session id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "iterate session ids")
	}

	switch len(ids) {
	case 0:
		return "", errors.Wrap(ErrSessionNotFound, ref)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("session reference %q is ambiguous", ref)
	}
}

// ListSessions returns every session, most recent conversation first.
func (d *DB) ListSessions() ([]Session, error) {
	rows, err := d.db.Query("SELECT " + sessionColumns + " FROM sessions ORDER BY last_at DESC, imported_at DESC")
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		out = append(out, *s)
	}
	return out, errors.Wrap(rows.Err(), "iterate sessions")
}

func (d *DB) DeleteSession(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow("SELECT COUNT(*) FROM sessions WHERE session_id = ?", id).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "check session")
	}
	if exists == 0 {
		return errors.Wrap(ErrSessionNotFound, id)
	}
	if err := deleteSessionTx(tx, id); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func deleteSessionTx(tx *sql.Tx, id string) error {
	for _, q := range []string{
		"DELETE FROM messages WHERE session_id = ?",
		"DELETE FROM attachments WHERE session_id = ?",
		"DELETE FROM sessions WHERE session_id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return errors.Wrap(err, "delete session")
		}
	}
	return nil
}

func (d *DB) Attachments(id string) ([]Attachment, error) {
	rows, err := d.db.Query("SELECT name, path FROM attachments WHERE session_id = ? ORDER BY name", id)
	if err != nil {
		return nil, errors.Wrap(err, "list attachments")
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.Name, &a.Path); err != nil {
			return nil, errors.Wrap(err, "scan attachment")
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "iterate attachments")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
