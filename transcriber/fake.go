package transcriber

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeTranscriber replays a scripted transcript. Each Feed call reveals the
// next word as an interim update.
type FakeTranscriber struct {
	text string
	err  error

	mu       sync.Mutex
	sessions int
	lang     string
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Name() string    { return "fake" }
func (f *FakeTranscriber) Streaming() bool { return true }

func (f *FakeTranscriber) NewSession(_ context.Context, cfg SessionConfig) (Session, error) {
	f.mu.Lock()
	f.sessions++
	f.lang = cfg.Language
	f.mu.Unlock()
	return &fakeSession{
		words:   strings.Fields(f.text),
		err:     f.err,
		updates: make(chan Update, 64),
	}, nil
}

// Sessions reports how many sessions were opened.
func (f *FakeTranscriber) Sessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

func (f *FakeTranscriber) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lang
}

type fakeSession struct {
	mu      sync.Mutex
	words   []string
	shown   int
	fed     int
	err     error
	updates chan Update
}

func (s *fakeSession) Feed(pcm []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fed += len(pcm)
	if s.shown >= len(s.words) {
		return
	}
	s.shown++
	select {
	case s.updates <- Update{Text: strings.Join(s.words[:s.shown], " ")}:
	default:
	}
}

func (s *fakeSession) Updates() <-chan Update { return s.updates }

func (s *fakeSession) Close() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(s.updates)
	if s.err != nil {
		return Result{}, fmt.Errorf("fake transcriber: %w", s.err)
	}
	if s.fed == 0 {
		return Result{NoSpeech: true}, nil
	}
	text := strings.Join(s.words, " ")
	if text != "" {
		select {
		case s.updates <- Update{Text: text, Final: true}:
		default:
		}
	}
	return Result{Text: text, NoSpeech: text == "", Metrics: []string{"total: 0ms (fake)"}}, nil
}
