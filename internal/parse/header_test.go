package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		format Format
		author string
		body   string
	}{
		{
			name:   "bracketed",
			line:   "[01/02/23, 10:00] Alice: Hello",
			format: FormatBracketed,
			author: "Alice",
			body:   "Hello",
		},
		{
			name:   "bracketed with seconds and meridiem",
			line:   "[1/2/2023, 9:05:33 PM] Bob: hi: there",
			format: FormatBracketed,
			author: "Bob",
			body:   "hi: there",
		},
		{
			name:   "bracketed notice without colon",
			line:   "[01/02/23, 10:00] Alice added Bob",
			format: FormatBracketed,
			author: "Alice added Bob",
		},
		{
			name:   "dashed",
			line:   "01/02/23, 10:00 - Alice: Hello",
			format: FormatDashed,
			author: "Alice",
			body:   "Hello",
		},
		{
			name:   "dashed with spanish meridiem and no-break spaces",
			line:   "1.2.23, 10:00\u202fp.\u00a0m.\u00a0- Carla: hola",
			format: FormatDashed,
			author: "Carla",
			body:   "hola",
		},
		{
			name:   "dashed with em dash",
			line:   "01-02-2023 10:00 \u2014 Dan: yo",
			format: FormatDashed,
			author: "Dan",
			body:   "yo",
		},
		{name: "plain text", line: "just some words", format: NoMatch},
		{name: "date without time", line: "01/02/23 - Alice: hi", format: NoMatch},
		{name: "three digit year", line: "[01/02/202, 10:00] Alice: hi", format: NoMatch},
		{name: "bracket with nothing after", line: "[01/02/23, 10:00]", format: NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := classify(tt.line)
			assert.Equal(t, tt.format, m.Format)
			if tt.format == NoMatch {
				return
			}
			assert.Equal(t, tt.author, m.Author)
			assert.Equal(t, tt.body, m.Body)
		})
	}
}

func TestClassifyPrefersBracketed(t *testing.T) {
	// a bracketed header whose author text looks like a dashed header
	m := classify("[01/02/23, 10:00] 01/02/23, 10:00 - Alice: hi")
	assert.Equal(t, FormatBracketed, m.Format)
}

func TestDecodeMeridiem(t *testing.T) {
	tests := []struct {
		clock    string
		meridiem string
		hour     int
	}{
		{"12:30", "PM", 12},
		{"1:30", "p. m.", 13},
		{"11:30", "pm", 23},
		{"12:30", "a.m.", 0},
		{"9:30", "AM", 9},
		{"21:30", "", 21},
		{"13:30", "PM", 13},
	}

	for _, tt := range tests {
		t.Run(tt.clock+" "+tt.meridiem, func(t *testing.T) {
			ts, ok := resolveTimestamp("01/02/23", tt.clock, tt.meridiem, time.UTC)
			require.True(t, ok)
			assert.Equal(t, tt.hour, ts.Hour())
			assert.Equal(t, 30, ts.Minute())
		})
	}
}

func TestResolveTimestampDayMonthYear(t *testing.T) {
	ts, ok := resolveTimestamp("05.11.99", "7:08:59", "", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2099, time.November, 5, 7, 8, 0, 0, time.UTC), ts)

	ts, ok = resolveTimestamp("29/02/2024", "00:00", "", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), ts)
}

func TestResolveTimestampRejectsOutOfRange(t *testing.T) {
	tests := []struct{ date, clock string }{
		{"32/01/23", "10:00"},
		{"29/02/23", "10:00"},
		{"01/13/23", "10:00"},
		{"00/01/23", "10:00"},
		{"01/01/23", "24:00"},
		{"01/01/23", "10:60"},
	}
	for _, tt := range tests {
		_, ok := resolveTimestamp(tt.date, tt.clock, "", time.UTC)
		assert.False(t, ok, "%s %s", tt.date, tt.clock)
	}
}

func TestDecodeStripsBidiFromAuthor(t *testing.T) {
	h, ok := decode(classify("[01/02/23, 10:00] \u202aAlice\u202c\u200e: hola"), time.UTC)
	require.True(t, ok)
	assert.Equal(t, "Alice", h.Author)
	assert.Equal(t, "hola", h.Body)
	assert.False(t, h.System)
}

func TestDecodeReclassifiesSystemNotice(t *testing.T) {
	h, ok := decode(classify("[01/02/23, 10:00] Alice:"), time.UTC)
	require.True(t, ok)
	assert.Equal(t, SystemAuthor, h.Author)
	assert.Equal(t, "Alice", h.Body)
	assert.True(t, h.System)

	h, ok = decode(classify("01/02/23, 10:00 - Alice created group \"Trip\""), time.UTC)
	require.True(t, ok)
	assert.Equal(t, SystemAuthor, h.Author)
	assert.Equal(t, "Alice created group \"Trip\"", h.Body)
}

func TestDecodeKeepsMeridiemInRawTime(t *testing.T) {
	h, ok := decode(classify("[01/02/23, 9:05 PM] Bob: hi"), time.UTC)
	require.True(t, ok)
	assert.Equal(t, "01/02/23", h.RawDate)
	assert.Equal(t, "9:05 PM", h.RawTime)
	assert.Equal(t, 21, h.Timestamp.Hour())
}

func TestDecodeIsIdempotent(t *testing.T) {
	lines := []string{
		"[01/02/23, 10:00] Alice: Hello",
		"[31/12/2023, 11:59:59 p. m.] Bob: fin",
		"1/2/23, 12:15 AM - Carla: hey",
		"15-08-2022, 18:40 - Dan: ok",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			first, ok := decode(classify(line), time.UTC)
			require.True(t, ok)

			again := first.Timestamp.Format("02/01/2006, 15:04") + " - x: y"
			second, ok := decode(classify(again), time.UTC)
			require.True(t, ok)
			assert.True(t, first.Timestamp.Equal(second.Timestamp))
		})
	}
}
