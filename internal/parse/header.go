package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Format identifies which header grammar matched a line.
type Format int

const (
	NoMatch Format = iota
	FormatBracketed
	FormatDashed
)

func (f Format) String() string {
	switch f {
	case FormatBracketed:
		return "bracketed"
	case FormatDashed:
		return "dashed"
	default:
		return "none"
	}
}

const (
	datePattern     = `(\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2}))`
	timePattern     = `(\d{1,2}:\d{2}(?::\d{2})?)`
	meridiemPattern = `([aApP]\.?[ \t\x{00A0}\x{202F}]*[mM]\.?)?`
	// some locales put a no-break or narrow no-break space where a plain one would be
	space = `[ \t\x{00A0}\x{202F}]`
)

var (
	// [01/02/23, 10:00:00 p. m.] Author: body
	bracketedRe = regexp.MustCompile(`^\[` + datePattern + `,?` + space + `*` + timePattern + space + `*` + meridiemPattern + space + `*\]` + space + `*([^:]+?)` + space + `*(?::` + space + `*(.*))?$`)

	// 01/02/23, 10:00 - Author: body
	dashedRe = regexp.MustCompile(`^` + datePattern + `,?` + space + `*` + timePattern + space + `*` + meridiemPattern + space + `*[-\x{2014}]` + space + `*([^:]+?)` + space + `*(?::` + space + `*(.*))?$`)
)

// headerMatch is the result of classifying one line: NoMatch, or one of the
// header formats together with its raw captures.
type headerMatch struct {
	Format   Format
	Date     string
	Time     string
	Meridiem string
	Author   string
	Body     string
}

func classify(line string) headerMatch {
	if m := bracketedRe.FindStringSubmatch(line); m != nil {
		return captures(FormatBracketed, m)
	}
	if m := dashedRe.FindStringSubmatch(line); m != nil {
		return captures(FormatDashed, m)
	}
	return headerMatch{Format: NoMatch}
}

func captures(f Format, m []string) headerMatch {
	return headerMatch{
		Format:   f,
		Date:     m[1],
		Time:     m[2],
		Meridiem: strings.TrimSpace(m[3]),
		Author:   m[4],
		Body:     m[5],
	}
}

// header is a decoded header line.
type header struct {
	RawDate   string
	RawTime   string
	Timestamp time.Time
	Author    string
	Body      string
	System    bool
}

// decode turns a matched header into a header. ok is false when the date or
// time do not describe a real instant; such lines are continuations.
func decode(m headerMatch, loc *time.Location) (header, bool) {
	ts, ok := resolveTimestamp(m.Date, m.Time, m.Meridiem, loc)
	if !ok {
		return header{}, false
	}

	h := header{
		RawDate:   m.Date,
		RawTime:   m.Time,
		Timestamp: ts,
		Author:    strings.TrimSpace(stripBidi(m.Author)),
		Body:      strings.TrimSpace(m.Body),
	}
	if m.Meridiem != "" {
		h.RawTime = m.Time + " " + m.Meridiem
	}

	if h.Body == "" && h.Author != "" {
		h.Body = h.Author
		h.Author = SystemAuthor
		h.System = true
	}
	return h, true
}

func resolveTimestamp(date, clock, meridiem string, loc *time.Location) (time.Time, bool) {
	parts := strings.FieldsFunc(date, func(r rune) bool { return r == '/' || r == '.' || r == '-' })
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if len(parts[2]) == 2 {
		year += 2000
	}

	hm := strings.Split(clock, ":")
	if len(hm) < 2 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(hm[0])
	minute, err2 := strconv.Atoi(hm[1])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}

	hour = applyMeridiem(hour, meridiem)

	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), true
}

func applyMeridiem(hour int, meridiem string) int {
	if meridiem == "" {
		return hour
	}
	switch strings.ToLower(meridiem[:1]) {
	case "p":
		if hour < 12 {
			return hour + 12
		}
	case "a":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isBidiControl(r rune) bool {
	return r == '\u200E' || r == '\u200F' || (r >= '\u202A' && r <= '\u202E')
}

func stripBidi(s string) string {
	return strings.Map(func(r rune) rune {
		if isBidiControl(r) {
			return -1
		}
		return r
	}, s)
}
