package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccumulator(t *testing.T) *Accumulator {
	t.Helper()
	m, err := NewEmojiMatcher(nil)
	require.NoError(t, err)
	return NewAccumulator(m, NewLexicon(nil, nil))
}

var base = time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC)

func TestAccumulatorEmojiAndSentiment(t *testing.T) {
	acc := newTestAccumulator(t)
	acc.Add(Entry{Author: "Bob", Content: "gracias 😍😍 pero odio esto", Timestamp: base})

	snap := acc.Snapshot()
	require.Len(t, snap.TopEmojis["Bob"], 1)
	assert.Equal(t, EmojiCount{Emoji: "😍", Count: 2}, snap.TopEmojis["Bob"][0])
	assert.Equal(t, 0, snap.SentimentScore["Bob"])
}

func TestAccumulatorSentimentIsAdditive(t *testing.T) {
	acc := newTestAccumulator(t)
	acc.Add(Entry{Author: "Ana", Content: "Gracias, GRACIAS!", Timestamp: base})
	acc.Add(Entry{Author: "Ana", Content: "odio", Timestamp: base.Add(time.Minute)})
	acc.Add(Entry{Author: "Luis", Content: "mal, malo, triste", Timestamp: base.Add(2 * time.Minute)})

	snap := acc.Snapshot()
	assert.Equal(t, 1, snap.SentimentScore["Ana"])
	assert.Equal(t, -3, snap.SentimentScore["Luis"])
}

func TestAccumulatorTopEmojisLimitAndTies(t *testing.T) {
	acc := newTestAccumulator(t)
	acc.Add(Entry{Author: "Ana", Content: "🚀 😀 🌟 ☕ ✅ 🤖 🤖", Timestamp: base})

	top := acc.Snapshot().TopEmojis["Ana"]
	require.Len(t, top, 5)
	assert.Equal(t, EmojiCount{Emoji: "🤖", Count: 2}, top[0])
	got := []string{top[1].Emoji, top[2].Emoji, top[3].Emoji, top[4].Emoji}
	assert.Equal(t, []string{"🚀", "😀", "🌟", "☕"}, got)
}

func TestAccumulatorResponseTime(t *testing.T) {
	tests := []struct {
		name    string
		gap     time.Duration
		want    int
		present bool
	}{
		{name: "thirty seconds", gap: 30 * time.Second, want: 30, present: true},
		{name: "just under a day", gap: 24*time.Hour - time.Minute, want: 86340, present: true},
		{name: "twenty five hours", gap: 25 * time.Hour},
		{name: "exactly a day", gap: 24 * time.Hour},
		{name: "zero gap", gap: 0},
		{name: "clock skew", gap: -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newTestAccumulator(t)
			acc.Add(Entry{Author: "Ana", Content: "hola", Timestamp: base})
			acc.Add(Entry{Author: "Luis", Content: "hola", Timestamp: base.Add(tt.gap)})

			got, ok := acc.Snapshot().AvgResponseTimeSeconds["Luis"]
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAccumulatorResponseTimeMeanIsRounded(t *testing.T) {
	acc := newTestAccumulator(t)
	acc.Add(Entry{Author: "Ana", Content: "a", Timestamp: base})
	acc.Add(Entry{Author: "Luis", Content: "b", Timestamp: base.Add(60 * time.Second)})
	acc.Add(Entry{Author: "Ana", Content: "c", Timestamp: base.Add(120 * time.Second)})
	acc.Add(Entry{Author: "Luis", Content: "d", Timestamp: base.Add(241 * time.Second)})

	snap := acc.Snapshot()
	// Luis: 60s and 121s
	assert.Equal(t, 91, snap.AvgResponseTimeSeconds["Luis"])
	assert.Equal(t, 60, snap.AvgResponseTimeSeconds["Ana"])
}

func TestAccumulatorSameAuthorRecordsNoSample(t *testing.T) {
	acc := newTestAccumulator(t)
	acc.Add(Entry{Author: "Ana", Content: "a", Timestamp: base})
	acc.Add(Entry{Author: "Ana", Content: "b", Timestamp: base.Add(time.Minute)})

	_, ok := acc.Snapshot().AvgResponseTimeSeconds["Ana"]
	assert.False(t, ok)
}

func TestAccumulatorIgnoresSystemNotices(t *testing.T) {
	acc := newTestAccumulator(t)
	acc.Add(Entry{Author: "Ana", Content: "hola", Timestamp: base})
	acc.Add(Entry{Author: SystemAuthor, Content: "Luis se unió 😀 gracias", Timestamp: base.Add(10 * time.Second), System: true})
	acc.Add(Entry{Author: "Luis", Content: "hola", Timestamp: base.Add(40 * time.Second)})

	snap := acc.Snapshot()
	assert.NotContains(t, snap.TopEmojis, SystemAuthor)
	assert.NotContains(t, snap.SentimentScore, SystemAuthor)
	// the reference message is Ana's, not the notice
	assert.Equal(t, 40, snap.AvgResponseTimeSeconds["Luis"])
}

func TestEmptySnapshotHasEmptyMaps(t *testing.T) {
	snap := newTestAccumulator(t).Snapshot()
	assert.NotNil(t, snap.TopEmojis)
	assert.Empty(t, snap.TopEmojis)
	assert.Empty(t, snap.AvgResponseTimeSeconds)
	assert.Empty(t, snap.SentimentScore)
}
