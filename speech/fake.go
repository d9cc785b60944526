package speech

import "sync"

// FakeRecognizer records requests and lets tests inject events.
type FakeRecognizer struct {
	mu       sync.Mutex
	events   chan Event
	starts   int
	stops    int
	StartErr error
	// Echo makes Start emit Started and Stop emit Ended.
	Echo bool
}

func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{events: make(chan Event, 64)}
}

func (f *FakeRecognizer) Start() error {
	f.mu.Lock()
	f.starts++
	err := f.StartErr
	echo := f.Echo
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if echo {
		f.Emit(Event{Kind: Started})
	}
	return nil
}

func (f *FakeRecognizer) Stop() {
	f.mu.Lock()
	f.stops++
	echo := f.Echo
	f.mu.Unlock()
	if echo {
		f.Emit(Event{Kind: Ended})
	}
}

func (f *FakeRecognizer) Events() <-chan Event { return f.events }

func (f *FakeRecognizer) Close() {}

func (f *FakeRecognizer) Emit(ev Event) { f.events <- ev }

func (f *FakeRecognizer) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeRecognizer) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type Utterance struct {
	Text string
	Rate float64
}

// FakeSynthesizer records utterances instead of playing them.
type FakeSynthesizer struct {
	mu       sync.Mutex
	spoken   []Utterance
	cancels  int
	speaking bool
}

func (f *FakeSynthesizer) Speak(text string, rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, Utterance{Text: text, Rate: rate})
	f.speaking = true
}

func (f *FakeSynthesizer) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	f.speaking = false
}

func (f *FakeSynthesizer) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *FakeSynthesizer) Spoken() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.spoken...)
}

func (f *FakeSynthesizer) Last() (Utterance, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.spoken) == 0 {
		return Utterance{}, false
	}
	return f.spoken[len(f.spoken)-1], true
}

func (f *FakeSynthesizer) Cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}
