package speech

import (
	"errors"
	"fmt"
)

// DefaultRate is the narration speed used for every utterance.
const DefaultRate = 0.8

// ErrUnsupported means no recognition capability exists on this machine.
// Typed answers keep working.
var ErrUnsupported = errors.New("speech recognition is not supported in this environment")

// UnsupportedMessage is the banner text shown for ErrUnsupported.
const UnsupportedMessage = "Speech recognition is not supported in this environment. You can still type your answers."

// Recognizer is a single continuous capture with interim results. Start and
// Stop are requests; the resulting lifecycle changes arrive on Events.
type Recognizer interface {
	Start() error
	Stop()
	Events() <-chan Event
	Close()
}

// Synthesizer plays at most one utterance at a time. Speak replaces whatever
// is playing and returns immediately.
type Synthesizer interface {
	Speak(text string, rate float64)
	Cancel()
	Speaking() bool
}

type EventKind int

const (
	Started EventKind = iota + 1
	Result
	Ended
	Errored
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Result:
		return "result"
	case Ended:
		return "ended"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one recognizer lifecycle change. For Result, Transcript is the
// finalized text so far plus the current interim text.
type Event struct {
	Kind       EventKind
	Transcript string
	Final      bool
	Err        *Error
}

type Reason int

const (
	ReasonOther Reason = iota
	ReasonNoSpeech
	ReasonAudioCapture
	ReasonPermissionDenied
)

func (r Reason) String() string {
	switch r {
	case ReasonNoSpeech:
		return "no-speech"
	case ReasonAudioCapture:
		return "audio-capture"
	case ReasonPermissionDenied:
		return "not-allowed"
	}
	return "other"
}

// ParseReason maps an engine error code onto the fixed reason set.
func ParseReason(code string) Reason {
	switch code {
	case "no-speech":
		return ReasonNoSpeech
	case "audio-capture":
		return ReasonAudioCapture
	case "not-allowed", "service-not-allowed":
		return ReasonPermissionDenied
	}
	return ReasonOther
}

// Error is a recognition failure reported through an Errored event.
type Error struct {
	Reason Reason
	Code   string
	Err    error
}

func NewError(code string, err error) *Error {
	return &Error{Reason: ParseReason(code), Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech %s: %v", e.Code, e.Err)
	}
	return "speech " + e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the user-facing banner text.
func (e *Error) Message() string {
	const prefix = "Speech recognition error: "
	switch e.Reason {
	case ReasonNoSpeech:
		return prefix + "No speech detected. Please try again."
	case ReasonAudioCapture:
		return prefix + "No microphone found. Please check your microphone."
	case ReasonPermissionDenied:
		return prefix + "Microphone access denied. Please allow microphone access."
	}
	return prefix + e.Code
}
