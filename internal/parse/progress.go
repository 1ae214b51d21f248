package parse

// DefaultProgressStride is the number of lines between progress reports.
const DefaultProgressStride = 5000

// ProgressSink receives parse progress as a percentage of total lines.
// Implementations must return quickly; the parser does not wait on them.
type ProgressSink interface {
	Progress(percent int)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(percent int)

func (f ProgressFunc) Progress(percent int) { f(percent) }

// ChanSink delivers progress on a channel, dropping updates the receiver
// is not ready for.
type ChanSink chan int

func (c ChanSink) Progress(percent int) {
	select {
	case c <- percent:
	default:
	}
}

type progressReporter struct {
	sink   ProgressSink
	stride int
	total  int
	last   int
}

func newProgressReporter(sink ProgressSink, stride, total int) *progressReporter {
	if stride <= 0 {
		stride = DefaultProgressStride
	}
	return &progressReporter{sink: sink, stride: stride, total: total, last: -1}
}

// line is called with the 0-based index of the line about to be processed.
func (p *progressReporter) line(i int) {
	if p.sink == nil || p.total == 0 || i%p.stride != 0 {
		return
	}
	p.emit(i * 100 / p.total)
}

func (p *progressReporter) done() {
	if p.sink == nil {
		return
	}
	p.emit(100)
}

func (p *progressReporter) emit(percent int) {
	if percent <= p.last {
		return
	}
	p.last = percent
	defer func() {
		// a faulty sink must not take the parse down with it
		_ = recover()
	}()
	p.sink.Progress(percent)
}
