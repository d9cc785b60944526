package beep

import (
	"testing"
	"time"

	"interviewer/audio"
)

func TestSamples(t *testing.T) {
	const rate = 16000
	start := Samples(Start, rate)
	if len(start) != int(rate*tickDuration) {
		t.Errorf("start len = %d, want %d", len(start), int(rate*tickDuration))
	}
	if start[0] != 0 {
		t.Errorf("tick should start at zero crossing, got %d", start[0])
	}

	var peak int16
	for _, s := range start {
		peak = max(peak, s)
	}
	if peak < 8000 || peak > 16384 {
		t.Errorf("peak = %d, want around half scale", peak)
	}

	errTone := Samples(Error, rate)
	want := 2*int(rate*0.08) + int(rate*0.05)
	if len(errTone) != want {
		t.Errorf("error len = %d, want %d", len(errTone), want)
	}

	if Samples(Cue(42), rate) != nil {
		t.Error("unknown cue should render nothing")
	}
}

func waitPlayed(t *testing.T, p *audio.FakePlayer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(p.Played()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("played %d cues, want %d", len(p.Played()), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPlayer(t *testing.T) {
	out := &audio.FakePlayer{}
	p := New(out, 16000)
	p.Play(Start)
	waitPlayed(t, out, 1)

	p.Disable()
	p.Play(End)
	time.Sleep(20 * time.Millisecond)
	if n := len(out.Played()); n != 1 {
		t.Errorf("disabled player played %d cues", n)
	}

	var nilPlayer *Player
	nilPlayer.Play(Start)
	nilPlayer.Disable()
}
