package interview

import (
	"fmt"

	"interviewer/api"
)

type Phase int

const (
	PhaseRoleSelection Phase = iota
	PhaseStarting
	PhaseQuestion
	PhaseSubmitting
	// PhaseFeedback holds the scored answer on screen until the paced
	// transition fires.
	PhaseFeedback
	PhaseSummary
)

func (p Phase) String() string {
	switch p {
	case PhaseRoleSelection:
		return "role-selection"
	case PhaseStarting:
		return "starting"
	case PhaseQuestion:
		return "question"
	case PhaseSubmitting:
		return "submitting"
	case PhaseFeedback:
		return "feedback"
	case PhaseSummary:
		return "summary"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Session struct {
	ID              string
	Role            string
	CurrentQuestion int
	TotalQuestions  int
}

// State is a read-only snapshot of the controller, safe to read from any
// goroutine.
type State struct {
	Phase      Phase
	Role       string
	Session    *Session
	Question   string
	Draft      string
	Listening  bool
	Submitting bool
	Confirming bool
	Error      string
	Summary    *api.Summary
}

// InInterview reports whether the question view is on screen.
func (s State) InInterview() bool {
	switch s.Phase {
	case PhaseQuestion, PhaseSubmitting, PhaseFeedback:
		return s.Session != nil
	}
	return false
}
