package jobs

import "sync/atomic"

// Poll reports whether cancellation has been requested. Workflows call it at
// their own safe points; it never blocks.
type Poll func() bool

// Token is the cooperative cancellation flag shared between the presentation
// context and the worker. A single Token lives as long as its Controller and
// is cleared at the start of every job.
//
// Cancellation is advisory: Request does not interrupt anything, it only
// changes what the next Requested call returns.
type Token struct {
	flag atomic.Bool
}

// Reset clears the flag.
func (t *Token) Reset() {
	t.flag.Store(false)
}

// Request sets the flag. Calling it repeatedly, or with no job running, is harmless.
func (t *Token) Request() {
	t.flag.Store(true)
}

// Requested returns the current flag value.
func (t *Token) Requested() bool {
	return t.flag.Load()
}

// Poll returns the read side of the token as a capability for workflows.
func (t *Token) Poll() Poll {
	return t.Requested
}
