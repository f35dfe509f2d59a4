package jobs

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Sink accepts output fragments from a running job. Implementations preserve
// submission order and may block briefly, but never drop a fragment.
type Sink interface {
	Emit(Fragment)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Fragment)

// Emit calls f.
func (f SinkFunc) Emit(fr Fragment) { f(fr) }

// Output is the worker-facing view of a Sink. It replaces writing to the
// process-wide stdout and stderr.
type Output struct {
	sink Sink
}

// NewOutput wraps sink. A nil sink discards everything.
func NewOutput(sink Sink) *Output {
	if sink == nil {
		sink = SinkFunc(func(Fragment) {})
	}
	return &Output{sink: sink}
}

// Println emits an informational fragment.
func (o *Output) Println(text string) {
	o.emit(text, OriginNormal)
}

// Printf emits a formatted informational fragment.
func (o *Output) Printf(format string, args ...any) {
	o.emit(fmt.Sprintf(format, args...), OriginNormal)
}

// Errorf emits a formatted error fragment.
func (o *Output) Errorf(format string, args ...any) {
	o.emit(fmt.Sprintf(format, args...), OriginError)
}

// Stderr returns a line-buffered writer producing error fragments.
func (o *Output) Stderr() *LineWriter {
	return &LineWriter{out: o, origin: OriginError}
}

func (o *Output) emit(text string, origin Origin) {
	text = strings.TrimRight(text, "\r\n")
	o.sink.Emit(Fragment{Text: text, Origin: origin})
}

// LineWriter turns arbitrary writes into one fragment per line. A trailing
// partial line is held until the next newline or Flush.
type LineWriter struct {
	mu     sync.Mutex
	out    *Output
	origin Origin
	buf    bytes.Buffer
}

var _ io.Writer = (*LineWriter)(nil)

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: put it back and wait for more.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.out.emit(line, w.origin)
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	w.out.emit(w.buf.String(), w.origin)
	w.buf.Reset()
}
