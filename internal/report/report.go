// Package report turns a stored conversation into activity and sentiment
// summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

const barWidth = 30

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type ParticipantCount struct {
	Author string
	Count  int
}

// MonthCount is one bucket of the monthly series, labelled M/YY.
type MonthCount struct {
	Label string
	Count int
}

type Activity struct {
	ByHour    [24]int
	ByWeekday [7]int // Sunday first
	ByMonth   []MonthCount
}

type Meter struct {
	Author  string
	Score   int
	Percent int
	Mood    string
	Label   string
}

type Report struct {
	Name         string
	Total        int
	Media        int
	First, Last  time.Time
	Participants []ParticipantCount
	Activity     Activity
	Analytics    analytics.Snapshot
	Meters       []Meter
}

// Build summarizes msgs. Times are bucketed in loc.
func Build(name string, msgs []parse.Message, snap analytics.Snapshot, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	r := Report{Name: name, Total: len(msgs), Analytics: snap}

	counts := make(map[string]int)
	var order []string
	monthIdx := make(map[string]int)

	for _, m := range msgs {
		ts := m.Timestamp.In(loc)
		if r.First.IsZero() || ts.Before(r.First) {
			r.First = ts
		}
		if ts.After(r.Last) {
			r.Last = ts
		}

		r.Activity.ByHour[ts.Hour()]++
		r.Activity.ByWeekday[ts.Weekday()]++
		label := fmt.Sprintf("%d/%02d", int(ts.Month()), ts.Year()%100)
		if i, ok := monthIdx[label]; ok {
			r.Activity.ByMonth[i].Count++
		} else {
			monthIdx[label] = len(r.Activity.ByMonth)
			r.Activity.ByMonth = append(r.Activity.ByMonth, MonthCount{Label: label, Count: 1})
		}

		if m.Attachment != "" || m.MediaOmitted {
			r.Media++
		}
		if m.System {
			continue
		}
		if _, ok := counts[m.Author]; !ok {
			order = append(order, m.Author)
		}
		counts[m.Author]++
	}

	for _, a := range order {
		r.Participants = append(r.Participants, ParticipantCount{Author: a, Count: counts[a]})
	}
	sort.SliceStable(r.Participants, func(i, j int) bool { return r.Participants[i].Count > r.Participants[j].Count })

	for _, p := range r.Participants {
		r.Meters = append(r.Meters, SentimentMeter(p.Author, snap.SentimentScore[p.Author]))
	}
	return r
}

// FormatDuration renders an average response time the way the dashboard
// shows it: "N/A", "45s", "12 min" or "2h 5m".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "N/A"
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// SentimentMeter maps a score onto 0..100, two points per word.
func SentimentMeter(author string, score int) Meter {
	percent := 50 + score*2
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	m := Meter{Author: author, Score: score, Percent: percent, Mood: "😐", Label: "neutral"}
	switch {
	case percent > 80:
		m.Mood, m.Label = "😍", "affectionate"
	case percent > 60:
		m.Mood, m.Label = "🙂", "warm"
	case percent < 20:
		m.Mood, m.Label = "😡", "hostile"
	case percent < 40:
		m.Mood, m.Label = "😒", "cold"
	}
	return m
}

// WriteText prints the report as plain text.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", r.Name)
	fmt.Fprintf(&b, "  %s messages, %s with media", humanize.Comma(int64(r.Total)), humanize.Comma(int64(r.Media)))
	if !r.First.IsZero() {
		fmt.Fprintf(&b, ", %s to %s (%s)", r.First.Format("2006-01-02"), r.Last.Format("2006-01-02"),
			strings.TrimSuffix(humanize.RelTime(r.First, r.Last, "", ""), " "))
	}
	b.WriteString("\n\n")

	nameW := 0
	for _, p := range r.Participants {
		if w := runewidth.StringWidth(p.Author); w > nameW {
			nameW = w
		}
	}

	b.WriteString("Participants\n")
	for _, p := range r.Participants {
		share := 0.0
		if r.Total > 0 {
			share = float64(p.Count) * 100 / float64(r.Total)
		}
		fmt.Fprintf(&b, "  %s  %8s  %5.1f%%  resp %s\n",
			runewidth.FillRight(p.Author, nameW), humanize.Comma(int64(p.Count)), share,
			FormatDuration(r.Analytics.AvgResponseTimeSeconds[p.Author]))
	}

	b.WriteString("\nTop emojis\n")
	for _, p := range r.Participants {
		top := r.Analytics.TopEmojis[p.Author]
		if len(top) == 0 {
			continue
		}
		parts := make([]string, 0, len(top))
		for _, e := range top {
			parts = append(parts, fmt.Sprintf("%s %d", e.Emoji, e.Count))
		}
		fmt.Fprintf(&b, "  %s  %s\n", runewidth.FillRight(p.Author, nameW), strings.Join(parts, "  "))
	}

	b.WriteString("\nSentiment\n")
	for _, m := range r.Meters {
		pos := m.Percent * (barWidth - 1) / 100
		track := strings.Repeat("-", pos) + "|" + strings.Repeat("-", barWidth-1-pos)
		fmt.Fprintf(&b, "  %s  %+4d  [%s] %s %s\n", runewidth.FillRight(m.Author, nameW), m.Score, track, m.Mood, m.Label)
	}

	b.WriteString("\nBy hour\n")
	hourLabels := make([]string, 24)
	for i := range hourLabels {
		hourLabels[i] = fmt.Sprintf("%02d:00", i)
	}
	writeBars(&b, hourLabels, r.Activity.ByHour[:])

	b.WriteString("\nBy weekday\n")
	writeBars(&b, weekdayLabels[:], r.Activity.ByWeekday[:])

	b.WriteString("\nBy month\n")
	labels := make([]string, len(r.Activity.ByMonth))
	values := make([]int, len(r.Activity.ByMonth))
	for i, mc := range r.Activity.ByMonth {
		labels[i], values[i] = mc.Label, mc.Count
	}
	writeBars(&b, labels, values)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBars(b *strings.Builder, labels []string, values []int) {
	peak := 0
	labelW := 0
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if w := runewidth.StringWidth(labels[i]); w > labelW {
			labelW = w
		}
	}
	for i, v := range values {
		n := 0
		if peak > 0 {
			n = v * barWidth / peak
		}
		fmt.Fprintf(b, "  %s  %s %s\n", runewidth.FillRight(labels[i], labelW), strings.Repeat("█", n), humanize.Comma(int64(v)))
	}
}
