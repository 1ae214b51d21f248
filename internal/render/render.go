package render

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorSystem  = "\033[2;3m"   // dim italic for notices
	colorHit     = "\033[43m"    // yellow background
	colorBoldRed = "\033[1;31m"  // bold red for keyword highlights
	colorMedia   = "\033[1;35m"  // bold magenta for attachments
)

// authorColors cycle so each participant keeps one color.
var authorColors = []string{
	"\033[1;34m", // bold blue
	"\033[1;32m", // bold green
	"\033[1;36m", // bold cyan
	"\033[1;33m", // bold yellow
	"\033[1;35m", // bold magenta
}

type Options struct {
	HitSeq  int
	Context int    // messages before/after hit to show
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var filtered []string
	for _, t := range strings.Fields(query) {
		t = strings.Trim(t, `"*()`)
		if t != "" && !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			if pos+len(term) > len(text) {
				break
			}
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

func authorColor(author string) string {
	h := fnv.New32a()
	h.Write([]byte(author))
	return authorColors[h.Sum32()%uint32(len(authorColors))]
}

// Conversation renders a window of a stored conversation and returns the
// content and the 0-based line of the hit message header (-1 if no hit).
func Conversation(db *store.DB, sessionID string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}

	session, err := db.GetSession(sessionID)
	if err != nil {
		return "", -1, err
	}

	w, err := db.GetMessagesWindow(sessionID, opts.HitSeq, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}
	if len(w.Messages) == 0 {
		return "(empty session)", -1, nil
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s [%s] %d messages ---%s", colorDim, session.Name, shortID(session.ID), session.MessageCount, colorReset))

	if w.Before > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, w.Before, colorReset))
	}

	for i, m := range w.Messages {
		if i == w.HitIdx {
			hitLine = lineCount
		}
		for _, l := range messageLines(m, i == w.HitIdx, opts.Query) {
			writeLine(l)
		}
	}

	if w.After > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, w.After, colorReset))
	}

	return b.String(), hitLine, nil
}

func messageLines(m parse.Message, hit bool, query string) []string {
	stamp := strings.TrimSpace(m.RawDate + " " + m.RawTime)

	if m.System {
		return []string{fmt.Sprintf("%s  ~ %s  %s%s", colorSystem, stamp, m.Content, colorReset), ""}
	}

	var header string
	if hit {
		header = fmt.Sprintf("%s>> %s > %s <<%s", colorHit, m.Author, stamp, colorReset)
	} else {
		header = fmt.Sprintf("%s%s%s %s%s%s", authorColor(m.Author), m.Author, colorReset, colorDim, stamp, colorReset)
	}

	text := highlightKeywords(m.Content, query)
	if m.Attachment != "" {
		text += "\n" + colorMedia + "[attachment: " + m.Attachment + "]" + colorReset
	} else if m.MediaOmitted {
		text = colorDim + text + colorReset
	}

	lines := []string{header}
	lines = append(lines, strings.Split(indentLines(text, "  "), "\n")...)
	return append(lines, "") // blank line after message
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
