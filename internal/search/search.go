package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chatlens/internal/store"
)

type Result struct {
	SessionID   string
	SessionName string
	Seq         int
	Timestamp   string
	Author      string
	Snippet     string
	Rank        float64
}

type Options struct {
	Query   string
	Session string // "" = all sessions
	Author  string // "" = all, matched case-insensitively
	Since   string // "" = no filter, e.g. "2024-01-01"
	Limit   int
	// PerSession caps hits per session; 0 means no cap.
	PerSession int
}

// containsCJK returns true if the string contains any CJK ideograph, kana or hangul.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	lowerRunes := []rune(strings.ToLower(text))
	qRunes := []rune(strings.ToLower(query))

	runePos := indexRunes(lowerRunes, qRunes)
	if runePos < 0 || len(lowerRunes) != len(runes) {
		// no match, return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

// Search runs a full-text query over message content. Queries with CJK
// text fall back to substring matching, which unicode61 cannot tokenize.
func Search(db *store.DB, opts Options) ([]Result, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before capping so we still have enough after
	origLimit := opts.Limit
	if opts.PerSession > 0 {
		opts.Limit = origLimit * 3
	}

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}
	return capPerSession(results, opts.PerSession, origLimit), nil
}

func capPerSession(results []Result, perSession, limit int) []Result {
	seen := make(map[string]int)
	var out []Result
	for _, r := range results {
		if perSession > 0 && seen[r.SessionID] >= perSession {
			continue
		}
		seen[r.SessionID]++
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// filters builds the shared WHERE conditions.
func filters(opts Options) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	// system notices are not searchable speech
	conditions = append(conditions, "m.system = 0")

	if opts.Session != "" {
		conditions = append(conditions, "m.session_id = ?")
		args = append(args, opts.Session)
	}
	if opts.Author != "" {
		conditions = append(conditions, "LOWER(m.author) = LOWER(?)")
		args = append(args, opts.Author)
	}
	if opts.Since != "" {
		conditions = append(conditions, "m.ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *store.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	conditions = append([]string{"messages_fts MATCH ?"}, conditions...)
	args = append([]interface{}{ftsQuery(opts.Query)}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.session_id,
			s.name,
			m.seq,
			m.ts,
			m.author,
			snippet(messages_fts, 0, '>>>','<<<', '...', 24) as snip,
			bm25(messages_fts) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN sessions s ON m.session_id = s.session_id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// ftsQuery quotes terms that would otherwise be read as FTS5 syntax, keeping
// the AND/OR/NOT/NEAR operators and trailing-* prefix queries usable.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		if fts5Operators[t] {
			continue
		}
		prefix := strings.HasSuffix(t, "*")
		t = strings.TrimSuffix(t, "*")
		t = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
		if prefix {
			t += "*"
		}
		terms[i] = t
	}
	return strings.Join(terms, " ")
}

var fts5Operators = map[string]bool{"AND": true, "OR": true, "NOT": true, "NEAR": true}

func searchLike(db *store.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	// LIKE match for CJK substring search
	conditions = append([]string{"m.content LIKE ?"}, conditions...)
	args = append([]interface{}{"%" + opts.Query + "%"}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.session_id,
			s.name,
			m.seq,
			m.ts,
			m.author,
			m.content
		FROM messages m
		JOIN sessions s ON m.session_id = s.session_id
		WHERE %s
		ORDER BY m.ts DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.SessionID, &r.SessionName, &r.Seq, &r.Timestamp, &r.Author, &fullText); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.SessionID, &r.SessionName, &r.Seq, &r.Timestamp, &r.Author, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Recent lists the latest messages, newest first, honoring the session,
// author and since filters. The TUI shows it before a query is typed.
func Recent(db *store.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}
	conditions, args := filters(opts)
	query := fmt.Sprintf(`
		SELECT m.session_id, s.name, m.seq, m.ts, m.author, m.content
		FROM messages m
		JOIN sessions s ON m.session_id = s.session_id
		WHERE %s
		ORDER BY m.ts DESC, m.seq DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var content string
		if err := rows.Scan(&r.SessionID, &r.SessionName, &r.Seq, &r.Timestamp, &r.Author, &content); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(content, "", 40)
		results = append(results, r)
	}
	return results, rows.Err()
}
