package transcriber

import (
	"context"
	"errors"
	"os"
)

// ErrNoProvider means no speech-to-text API key is configured.
var ErrNoProvider = errors.New("set DEEPGRAM_API_KEY or GROQ_API_KEY to enable spoken answers")

type SessionConfig struct {
	Language string
}

// Update is a transcript preview. Text is everything finalized so far
// followed by the current interim hypothesis.
type Update struct {
	Text  string
	Final bool
}

type Result struct {
	Text     string
	NoSpeech bool
	Metrics  []string
}

type Transcriber interface {
	Name() string
	// Streaming reports whether sessions emit interim updates while fed.
	Streaming() bool
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session consumes one capture. Close finalizes and returns the transcript;
// Updates is closed once Close returns.
type Session interface {
	Feed(pcm []byte)
	Updates() <-chan Update
	Close() (Result, error)
}

// New picks a provider from the environment. Deepgram is preferred because it
// streams interim results.
func New() (Transcriber, error) {
	if key := os.Getenv("DEEPGRAM_API_KEY"); key != "" {
		return NewDeepgram(key), nil
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	return nil, ErrNoProvider
}
