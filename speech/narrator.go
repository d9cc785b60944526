package speech

import (
	"context"
	"errors"
	"sync"

	"interviewer/audio"
	"interviewer/log"
	"interviewer/tts"
)

// Narrator speaks through a TTS provider. A new Speak cancels the utterance
// in progress, including one still being synthesized.
type Narrator struct {
	provider tts.Provider
	player   audio.Player

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	playMu sync.Mutex
}

func NewNarrator(provider tts.Provider, player audio.Player) *Narrator {
	return &Narrator{provider: provider, player: player}
}

func (n *Narrator) Speak(text string, rate float64) {
	if rate <= 0 {
		rate = DefaultRate
	}
	ctx, cancel := context.WithCancel(context.Background())

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++
	gen := n.gen
	n.cancel = cancel
	n.mu.Unlock()

	go n.say(ctx, gen, text, rate)
}

func (n *Narrator) say(ctx context.Context, gen uint64, text string, rate float64) {
	defer n.finish(gen)

	samples, err := n.provider.Synthesize(ctx, text, rate)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warnf("narration failed: %v", err)
		}
		return
	}

	n.playMu.Lock()
	defer n.playMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err := n.player.Play(ctx, samples); err != nil && !errors.Is(err, context.Canceled) {
		log.Warnf("narration playback failed: %v", err)
	}
}

func (n *Narrator) finish(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen == gen && n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

func (n *Narrator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// Speaking reports whether an utterance is being synthesized or played.
func (n *Narrator) Speaking() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cancel != nil
}

// Mute discards every utterance. Used when no TTS provider is configured.
type Mute struct{}

func (Mute) Speak(string, float64) {}
func (Mute) Cancel()               {}
func (Mute) Speaking() bool        { return false }
