package ui

import (
	"github.com/divisio/stag/internal/jobs"
)

// outputLine is one rendered row of job output.
type outputLine struct {
	text  string
	isErr bool
}

// console receives controller notifications. It is held by pointer so the
// value-typed Model sees every change made from Start, Cancel and Handle.
type console struct {
	lines    []outputLine
	rendered []string // styled form of a prefix of lines
	running  bool
	job      jobs.Job
	last     jobs.Outcome
	hasLast  bool
	dirty    bool
	limit    int
}

var _ jobs.Observer = (*console)(nil)

func newConsole(limit int) *console {
	if limit <= 0 {
		limit = OutputBufferLimit
	}
	return &console{limit: limit}
}

func (c *console) OnRunning(job jobs.Job) {
	c.running = true
	c.job = job
}

func (c *console) OnFragment(fr jobs.Fragment) {
	c.append(outputLine{text: fr.Text, isErr: fr.Origin == jobs.OriginError})
}

func (c *console) OnIdle(job jobs.Job, outcome jobs.Outcome) {
	c.running = false
	c.job = job
	c.last = outcome
	c.hasLast = true
}

// note appends a line that did not come from a job.
func (c *console) note(text string, isError bool) {
	c.append(outputLine{text: text, isErr: isError})
}

func (c *console) clear() {
	c.lines = nil
	c.rendered = nil
	c.dirty = true
}

// append adds a line and drops the oldest ones beyond the limit. The cache
// loses the same rows so it stays a prefix of lines.
func (c *console) append(line outputLine) {
	c.lines = append(c.lines, line)
	if drop := len(c.lines) - c.limit; drop > 0 {
		c.lines = c.lines[drop:]
		if drop < len(c.rendered) {
			c.rendered = c.rendered[drop:]
		} else {
			c.rendered = nil
		}
	}
	c.dirty = true
}

// invalidate forces every line to be styled again.
func (c *console) invalidate() {
	c.rendered = nil
	c.dirty = true
}

// takeDirty reports whether lines changed since the last call.
func (c *console) takeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}
