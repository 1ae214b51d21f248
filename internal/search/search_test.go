package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/parse"
	"github.com/Zuo-Peng/chatlens/internal/store"
)

func seed(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	add := func(id, name string, day int, lines ...[2]string) {
		base := time.Date(2023, 3, day, 9, 0, 0, 0, time.UTC)
		var msgs []parse.Message
		for i, l := range lines {
			msgs = append(msgs, parse.Message{
				SequenceID: i,
				Timestamp:  base.Add(time.Duration(i) * time.Minute),
				Author:     l[0],
				Content:    l[1],
				System:     l[0] == parse.SystemAuthor,
			})
		}
		require.NoError(t, db.SaveSession(store.Session{
			ID: id, Name: name, FirstAt: base, LastAt: base, Analytics: analytics.NewSnapshot(),
		}, msgs, nil))
	}

	add("s1", "Alice & Bob", 1,
		[2]string{"Alice", "vamos a la playa mañana"},
		[2]string{"Bob", "la playa está lejos"},
		[2]string{parse.SystemAuthor, "Alice cambió el asunto a playa"},
	)
	add("s2", "Carla & Dan", 10,
		[2]string{"Carla", "prefiero la montaña que la playa"},
		[2]string{"Dan", "我们去海边吧"},
	)
	return db
}

func TestSearchFTS(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "playa"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NotEqual(t, parse.SystemAuthor, r.Author)
		assert.Contains(t, r.Snippet, ">>>playa<<<")
	}
}

func TestSearchFilters(t *testing.T) {
	db := seed(t)

	tests := []struct {
		name string
		opts Options
		want []string // authors
	}{
		{"session", Options{Query: "playa", Session: "s2"}, []string{"Carla"}},
		{"author", Options{Query: "playa", Author: "bob"}, []string{"Bob"}},
		{"since", Options{Query: "playa", Since: "2023-03-05"}, []string{"Carla"}},
		{"per session", Options{Query: "playa", PerSession: 1, Session: "s1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(db, tt.opts)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Len(t, results, 1)
				return
			}
			var got []string
			for _, r := range results {
				got = append(got, r.Author)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchCJKFallsBackToLike(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "海边"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dan", results[0].Author)
	assert.Equal(t, "Carla & Dan", results[0].SessionName)
	assert.Equal(t, "我们去>>>海边<<<吧", results[0].Snippet)
}

func TestSearchOperatorsAndPunctuation(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "playa NOT lejos"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = Search(db, Options{Query: "play*"})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = Search(db, Options{Query: `"unbalanced (quote`})
	assert.NoError(t, err)

	results, err = Search(db, Options{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecent(t *testing.T) {
	db := seed(t)

	results, err := Recent(db, Options{Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Dan", results[0].Author)
	assert.Equal(t, "Carla", results[1].Author)
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...bc >>>Hola<<< mu...", makeSnippet("abc Hola mundo", "hola", 3))
	assert.Equal(t, "short", makeSnippet("short", "zzz", 10))
	assert.Equal(t, "abcd...", makeSnippet("abcdefgh", "zzz", 2))
}
