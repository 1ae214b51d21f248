package parse

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/analytics"
)

var (
	ErrEmptyInput = errors.New("no transcript text supplied")
	ErrInternal   = errors.New("internal parser fault")
)

// Options configures a parse. The zero value is usable.
type Options struct {
	// Attachments are the media file names shipped with the transcript.
	Attachments []string
	// Location interprets wall-clock header times. Defaults to time.Local.
	Location *time.Location
	Emoji    *analytics.EmojiMatcher
	Lexicon  *analytics.Lexicon

	Progress       ProgressSink
	ProgressStride int
}

type parser struct {
	opts     Options
	progress *progressReporter
}

// state is threaded through every line step.
type state struct {
	open     *Message
	messages []Message
	acc      *analytics.Accumulator
}

// Parse scans text once and returns the recovered messages plus analytics.
// Text that contains no header yields an empty result, not an error.
func Parse(text string, opts Options) (res *Result, err error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v\n%s", ErrInternal, r, debug.Stack())
		}
	}()

	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Emoji == nil {
		m, err := analytics.NewEmojiMatcher(nil)
		if err != nil {
			return nil, err
		}
		opts.Emoji = m
	}
	if opts.Lexicon == nil {
		opts.Lexicon = analytics.NewLexicon(nil, nil)
	}

	lines := strings.Split(text, "\n")
	p := &parser{
		opts:     opts,
		progress: newProgressReporter(opts.Progress, opts.ProgressStride, len(lines)),
	}

	st := state{acc: analytics.NewAccumulator(opts.Emoji, opts.Lexicon)}
	for i, raw := range lines {
		p.progress.line(i)
		st = p.step(st, i+1, raw)
	}
	st = p.finalize(st)
	p.progress.done()

	return &Result{
		Messages:  st.messages,
		Analytics: st.acc.Snapshot(),
		Lines:     len(lines),
	}, nil
}

func (p *parser) step(st state, lineNo int, raw string) state {
	line := strings.TrimSpace(raw)
	if line == "" {
		return st
	}

	m := classify(strings.TrimLeftFunc(line, isBidiControl))
	if m.Format != NoMatch {
		if h, ok := decode(m, p.opts.Location); ok {
			st = p.finalize(st)
			st.open = p.openMessage(h, m.Format, len(st.messages), lineNo)
			return st
		}
	}

	if st.open != nil {
		st.open.Content += "\n" + line
	}
	return st
}

func (p *parser) openMessage(h header, f Format, seq, lineNo int) *Message {
	return &Message{
		SequenceID:   seq,
		RawDate:      h.RawDate,
		RawTime:      h.RawTime,
		Timestamp:    h.Timestamp,
		Author:       h.Author,
		Content:      h.Body,
		Attachment:   resolveAttachment(h.Body, p.opts.Attachments),
		System:       h.System,
		MediaOmitted: !h.System && isMediaPlaceholder(h.Body),
		LineNumber:   lineNo,
		Format:       f,
	}
}

// finalize closes the open message, if any, and feeds it to the analytics.
func (p *parser) finalize(st state) state {
	if st.open == nil {
		return st
	}
	msg := *st.open
	st.open = nil
	st.messages = append(st.messages, msg)
	st.acc.Add(analytics.Entry{
		Author:    msg.Author,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		System:    msg.System,
	})
	return st
}

// Run parses on a separate goroutine. If ctx ends first Run returns
// ctx.Err() and the worker's eventual result is discarded.
func Run(ctx context.Context, text string, opts Options) (*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Parse(text, opts)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.res, o.err
	}
}
