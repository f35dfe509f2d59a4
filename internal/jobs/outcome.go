package jobs

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by provisioning and workflows when they observe a
// cancellation request. The runner maps it to a Cancelled outcome.
var ErrCancelled = errors.New("cancelled")

// OutcomeKind classifies how a job ended.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeFailure   OutcomeKind = "failure"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the terminal result of a job.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// Success returns a successful outcome.
func Success() Outcome { return Outcome{Kind: OutcomeSuccess} }

// Cancelled returns a cancelled outcome.
func Cancelled() Outcome { return Outcome{Kind: OutcomeCancelled} }

// Failure returns a failed outcome carrying message.
func Failure(message string) Outcome {
	return Outcome{Kind: OutcomeFailure, Message: message}
}

// OutcomeFromError maps a workflow error to an Outcome.
func OutcomeFromError(err error) Outcome {
	switch {
	case err == nil:
		return Success()
	case errors.Is(err, ErrCancelled):
		return Cancelled()
	default:
		return Failure(err.Error())
	}
}

func (o Outcome) String() string {
	if o.Kind == OutcomeFailure && o.Message != "" {
		return fmt.Sprintf("%s: %s", o.Kind, o.Message)
	}
	return string(o.Kind)
}
