package analytics

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"
)

// RuneRange is an inclusive code point interval.
type RuneRange struct {
	Lo rune
	Hi rune
}

// DefaultEmojiRanges are the pictographic blocks counted as emoji.
var DefaultEmojiRanges = []RuneRange{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // misc symbols and pictographs
	{0x1F680, 0x1F6FF}, // transport and map
	{0x1F900, 0x1F9FF}, // supplemental symbols and pictographs
	{0x2600, 0x26FF},   // misc symbols
	{0x2700, 0x27BF},   // dingbats
}

const variationSelector16 = '\uFE0F'

// EmojiMatcher finds emoji in text using a configurable block list.
type EmojiMatcher struct {
	table *unicode.RangeTable
}

// NewEmojiMatcher compiles ranges into a lookup table. Overlapping ranges are merged.
func NewEmojiMatcher(ranges []RuneRange) (*EmojiMatcher, error) {
	if len(ranges) == 0 {
		ranges = DefaultEmojiRanges
	}
	sorted := make([]RuneRange, 0, len(ranges))
	for _, r := range ranges {
		if r.Lo < 0 || r.Hi > unicode.MaxRune || r.Lo > r.Hi {
			return nil, fmt.Errorf("invalid emoji range %#x-%#x", r.Lo, r.Hi)
		}
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, r)
	}

	table := &unicode.RangeTable{}
	for _, r := range merged {
		if r.Hi <= 0xFFFF {
			table.R16 = append(table.R16, unicode.Range16{Lo: uint16(r.Lo), Hi: uint16(r.Hi), Stride: 1})
			continue
		}
		if r.Lo <= 0xFFFF {
			table.R16 = append(table.R16, unicode.Range16{Lo: uint16(r.Lo), Hi: 0xFFFF, Stride: 1})
			r.Lo = 0x10000
		}
		table.R32 = append(table.R32, unicode.Range32{Lo: uint32(r.Lo), Hi: uint32(r.Hi), Stride: 1})
	}
	return &EmojiMatcher{table: table}, nil
}

// Is reports whether r falls inside one of the configured blocks.
func (m *EmojiMatcher) Is(r rune) bool {
	return unicode.Is(m.table, r)
}

// Find returns every emoji in text in order of appearance. A following
// variation selector or skin-tone modifier is kept with its base emoji.
func (m *EmojiMatcher) Find(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !m.Is(r) {
			i += size
			continue
		}
		start := i
		i += size
		for i < len(text) {
			next, n := utf8.DecodeRuneInString(text[i:])
			if next != variationSelector16 && !isSkinTone(next) {
				break
			}
			i += n
		}
		out = append(out, text[start:i])
	}
	return out
}

func isSkinTone(r rune) bool {
	return r >= 0x1F3FB && r <= 0x1F3FF
}
