package parse

import (
	"sort"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
)

// SystemAuthor is the author of notices that carry no speaker.
const SystemAuthor = analytics.SystemAuthor

type Message struct {
	SequenceID   int       `json:"sequence_id"`
	RawDate      string    `json:"raw_date"`
	RawTime      string    `json:"raw_time"` // time token plus AM/PM marker, as written
	Timestamp    time.Time `json:"timestamp"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	Attachment   string    `json:"attachment,omitempty"`
	System       bool      `json:"system"`
	MediaOmitted bool      `json:"media_omitted"`
	LineNumber   int       `json:"line_number"` // 1-based line of the header in the transcript
	Format       Format    `json:"-"`
}

type Result struct {
	Messages  []Message
	Analytics analytics.Snapshot
	Lines     int
}

// Participants returns non-system authors ordered by message count, most
// active first. Ties keep first appearance order.
func (r *Result) Participants() []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range r.Messages {
		if m.System {
			continue
		}
		if _, ok := counts[m.Author]; !ok {
			order = append(order, m.Author)
		}
		counts[m.Author]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return order
}
