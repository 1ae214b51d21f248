package analytics

import (
	"math"
	"sort"
	"time"
)

const (
	// SystemAuthor is the pseudo-author of notices that carry no speaker.
	SystemAuthor = "System"

	topEmojiLimit   = 5
	maxResponseTime = 24 * time.Hour
)

// Entry is the part of a finalized message the accumulator looks at.
type Entry struct {
	Author    string
	Content   string
	Timestamp time.Time
	System    bool
}

// EmojiCount is one row of an author's emoji ranking.
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Snapshot is the aggregated per-author result of one parse.
type Snapshot struct {
	TopEmojis              map[string][]EmojiCount `json:"top_emojis"`
	AvgResponseTimeSeconds map[string]int          `json:"avg_response_time_seconds"`
	SentimentScore         map[string]int          `json:"sentiment_score"`
}

// NewSnapshot returns a snapshot with empty, non-nil maps.
func NewSnapshot() Snapshot {
	return Snapshot{
		TopEmojis:              make(map[string][]EmojiCount),
		AvgResponseTimeSeconds: make(map[string]int),
		SentimentScore:         make(map[string]int),
	}
}

type emojiTally struct {
	counts map[string]int
	order  []string
}

// Accumulator folds finalized messages into per-author statistics. It is
// owned by a single parse and is not safe for concurrent use.
type Accumulator struct {
	emoji   *EmojiMatcher
	lexicon *Lexicon

	tallies   map[string]*emojiTally
	samples   map[string][]int64
	sentiment map[string]int
	prev      *Entry
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(emoji *EmojiMatcher, lexicon *Lexicon) *Accumulator {
	return &Accumulator{
		emoji:     emoji,
		lexicon:   lexicon,
		tallies:   make(map[string]*emojiTally),
		samples:   make(map[string][]int64),
		sentiment: make(map[string]int),
	}
}

// Add records one finalized message. System notices are ignored.
func (a *Accumulator) Add(e Entry) {
	if e.System || e.Author == SystemAuthor {
		return
	}

	for _, em := range a.emoji.Find(e.Content) {
		t := a.tallies[e.Author]
		if t == nil {
			t = &emojiTally{counts: make(map[string]int)}
			a.tallies[e.Author] = t
		}
		if _, seen := t.counts[em]; !seen {
			t.order = append(t.order, em)
		}
		t.counts[em]++
	}

	a.sentiment[e.Author] += a.lexicon.Score(e.Content)

	if a.prev != nil && a.prev.Author != e.Author {
		elapsed := e.Timestamp.Sub(a.prev.Timestamp)
		if elapsed > 0 && elapsed < maxResponseTime {
			a.samples[e.Author] = append(a.samples[e.Author], int64(elapsed/time.Second))
		}
	}
	prev := e
	a.prev = &prev
}

// Snapshot computes the aggregated result. It can be called more than once.
func (a *Accumulator) Snapshot() Snapshot {
	snap := NewSnapshot()

	for author, t := range a.tallies {
		ranked := make([]EmojiCount, 0, len(t.order))
		for _, em := range t.order {
			ranked = append(ranked, EmojiCount{Emoji: em, Count: t.counts[em]})
		}
		// stable: equal counts keep first-seen order
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
		if len(ranked) > topEmojiLimit {
			ranked = ranked[:topEmojiLimit]
		}
		snap.TopEmojis[author] = ranked
	}

	for author, s := range a.samples {
		if len(s) == 0 {
			continue
		}
		var sum int64
		for _, v := range s {
			sum += v
		}
		snap.AvgResponseTimeSeconds[author] = int(math.Round(float64(sum) / float64(len(s))))
	}

	for author, score := range a.sentiment {
		snap.SentimentScore[author] = score
	}
	return snap
}
