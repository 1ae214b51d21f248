package store

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Zuo-Peng/chatlens/internal/parse"
)

const messageColumns = "seq, ts, raw_date, raw_time, author, content, attachment, system, media_omitted, line_number"

func scanMessages(rows *sql.Rows) ([]parse.Message, error) {
	defer rows.Close()

	var out []parse.Message
	for rows.Next() {
		var (
			m  parse.Message
			ts string
		)
		if err := rows.Scan(&m.SequenceID, &ts, &m.RawDate, &m.RawTime, &m.Author, &m.Content,
			&m.Attachment, &m.System, &m.MediaOmitted, &m.LineNumber); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		m.Timestamp = parseTime(ts)
		out = append(out, m)
	}
	return out, errors.Wrap(rows.Err(), "iterate messages")
}

func (d *DB) GetMessages(sessionID string) ([]parse.Message, error) {
	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE session_id = ? ORDER BY seq",
		sessionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "get messages")
	}
	return scanMessages(rows)
}

func (d *DB) GetMessage(sessionID string, seq int) (*parse.Message, error) {
	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE session_id = ? AND seq = ?",
		sessionID, seq,
	)
	if err != nil {
		return nil, errors.Wrap(err, "get message")
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errors.Errorf("message %d not found in session %s", seq, sessionID)
	}
	return &msgs[0], nil
}

// Window is a slice of a conversation around one message.
type Window struct {
	Messages []parse.Message
	// HitIdx is the index of the hit within Messages, or -1.
	HitIdx int
	// Before and After count the messages outside the window.
	Before int
	After  int
}

// GetMessagesWindow loads context messages on each side of hitSeq. With
// hitSeq < 0 or context < 0 the whole session is returned.
func (d *DB) GetMessagesWindow(sessionID string, hitSeq, context int) (*Window, error) {
	var total int
	if err := d.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID,
	).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count messages")
	}

	// sequence ids are gap-free, so the position of a message is its seq
	start, limit := 0, total
	if hitSeq >= 0 && hitSeq < total && context >= 0 {
		start = hitSeq - context
		if start < 0 {
			start = 0
		}
		end := hitSeq + context + 1
		if end > total {
			end = total
		}
		limit = end - start
	}

	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE session_id = ? ORDER BY seq LIMIT ? OFFSET ?",
		sessionID, limit, start,
	)
	if err != nil {
		return nil, errors.Wrap(err, "get message window")
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	w := &Window{Messages: msgs, HitIdx: -1, Before: start, After: total - start - len(msgs)}
	for i, m := range msgs {
		if m.SequenceID == hitSeq {
			w.HitIdx = i
			break
		}
	}
	return w, nil
}
