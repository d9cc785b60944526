package tts

import (
	"context"
	"errors"
	"os"
)

// ErrNoProvider means no text-to-speech API key is configured.
var ErrNoProvider = errors.New("set OPENAI_API_KEY to enable narration")

// Provider turns text into 16-bit mono PCM at SampleRate.
type Provider interface {
	Name() string
	SampleRate() int
	Synthesize(ctx context.Context, text string, speed float64) ([]int16, error)
}

// New returns the provider configured in the environment.
func New(voice string) (Provider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, ErrNoProvider
	}
	return NewOpenAI(key, voice), nil
}
