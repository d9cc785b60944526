package tts

import (
	"context"
	"sync"
)

// FakeProvider returns a fixed number of silent samples per character.
type FakeProvider struct {
	Err error

	mu       sync.Mutex
	requests []Request
}

type Request struct {
	Text  string
	Speed float64
}

func (f *FakeProvider) Name() string    { return "fake" }
func (f *FakeProvider) SampleRate() int { return 16000 }

func (f *FakeProvider) Synthesize(ctx context.Context, text string, speed float64) ([]int16, error) {
	f.mu.Lock()
	f.requests = append(f.requests, Request{Text: text, Speed: speed})
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return make([]int16, 10*len(text)), nil
}

func (f *FakeProvider) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
