package speech

import (
	"errors"
	"testing"
	"time"

	"interviewer/audio"
	"interviewer/tts"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNarratorReplacesUtterance(t *testing.T) {
	provider := &tts.FakeProvider{}
	player := &audio.FakePlayer{Hold: true}
	n := NewNarrator(provider, player)

	n.Speak("Question 1", 0)
	eventually(t, "first playback", func() bool { return len(player.Played()) == 1 })
	if !n.Speaking() {
		t.Error("Speaking() = false during playback")
	}

	n.Speak("Question 2", 1.2)
	eventually(t, "second playback", func() bool { return len(player.Played()) == 2 })

	reqs := provider.Requests()
	if len(reqs) != 2 || reqs[0].Speed != DefaultRate || reqs[1].Text != "Question 2" || reqs[1].Speed != 1.2 {
		t.Errorf("requests = %+v", reqs)
	}

	n.Cancel()
	if n.Speaking() {
		t.Error("Speaking() = true after Cancel")
	}
}

func TestNarratorFinishes(t *testing.T) {
	player := &audio.FakePlayer{}
	n := NewNarrator(&tts.FakeProvider{}, player)
	n.Speak("done", 1)
	eventually(t, "narration to finish", func() bool { return !n.Speaking() && len(player.Played()) == 1 })
}

func TestNarratorSynthesisError(t *testing.T) {
	player := &audio.FakePlayer{}
	n := NewNarrator(&tts.FakeProvider{Err: errors.New("quota")}, player)
	n.Speak("hello", 1)
	eventually(t, "failed narration to settle", func() bool { return !n.Speaking() })
	if len(player.Played()) != 0 {
		t.Error("nothing should play when synthesis fails")
	}
}

func TestMute(t *testing.T) {
	var s Synthesizer = Mute{}
	s.Speak("ignored", 1)
	s.Cancel()
	if s.Speaking() {
		t.Error("Mute should never be speaking")
	}
}
