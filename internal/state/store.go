package state

import (
	"sync"
	"time"

	"github.com/divisio/stag/internal/jobs"
)

const defaultHistoryLimit = 50

// Record is one job as seen by the history.
type Record struct {
	Job     jobs.Job
	Outcome jobs.Outcome
}

// Elapsed is the run time of a finished job.
func (r Record) Elapsed() time.Duration {
	if r.Job.FinishedAt.IsZero() {
		return 0
	}
	return r.Job.FinishedAt.Sub(r.Job.StartedAt)
}

// Counters tally finished jobs by outcome.
type Counters struct {
	Succeeded int
	Failed    int
	Cancelled int
}

// Total is the number of finished jobs.
func (c Counters) Total() int {
	return c.Succeeded + c.Failed + c.Cancelled
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Current     jobs.Job
	HasCurrent  bool
	Last        Record
	HasLast     bool
	History     []Record // oldest first
	Counters    Counters
	LastUpdated time.Time
}

// Store coordinates concurrent updates to the job history. It implements
// jobs.Recorder.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	limit    int
}

var _ jobs.Recorder = (*Store)(nil)

// NewStore returns a store keeping at most limit finished jobs. A
// non-positive limit uses the default.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Store{limit: limit}
}

// Begin records a dispatched job.
func (s *Store) Begin(job jobs.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Current = job
	s.snapshot.HasCurrent = true
	s.snapshot.LastUpdated = time.Now()
}

// Finish records the outcome of a job and clears the current job.
func (s *Store) Finish(job jobs.Job, outcome jobs.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.HasCurrent && s.snapshot.Current.ID == job.ID {
		s.snapshot.Current = jobs.Job{}
		s.snapshot.HasCurrent = false
	}
	rec := Record{Job: job, Outcome: outcome}
	s.snapshot.Last = rec
	s.snapshot.HasLast = true

	limit := s.limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	s.snapshot.History = append(s.snapshot.History, rec)
	if over := len(s.snapshot.History) - limit; over > 0 {
		s.snapshot.History = append([]Record(nil), s.snapshot.History[over:]...)
	}

	switch outcome.Kind {
	case jobs.OutcomeSuccess:
		s.snapshot.Counters.Succeeded++
	case jobs.OutcomeCancelled:
		s.snapshot.Counters.Cancelled++
	default:
		s.snapshot.Counters.Failed++
	}
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.History = cloneHistory(s.snapshot.History)
	return snap
}

func cloneHistory(items []Record) []Record {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Record, len(items))
	copy(dup, items)
	return dup
}
