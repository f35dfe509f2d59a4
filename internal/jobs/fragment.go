package jobs

import "time"

// Origin tags the stream a fragment was written to.
type Origin int

const (
	OriginNormal Origin = iota
	OriginError
)

func (o Origin) String() string {
	if o == OriginError {
		return "error"
	}
	return "normal"
}

// Fragment is one line of job output.
type Fragment struct {
	Seq    int64 // delivery order on the presentation context
	Time   time.Time
	JobID  string
	Text   string
	Origin Origin
}

// EventType distinguishes output from the terminal signal on the event channel.
type EventType string

const (
	EventFragment EventType = "fragment"
	EventFinished EventType = "finished"
)

// Event is the unit handed from the worker to the presentation context.
// Fragments and the terminal signal share one channel so the terminal signal
// is always observed after the output that preceded it.
type Event struct {
	Type     EventType
	JobID    string
	Fragment Fragment
	Outcome  Outcome
}
