package beep

import (
	"context"
	"math"
	"sync"
	"time"

	"interviewer/audio"
)

// Cue is one of the listening tones.
type Cue int

const (
	Start Cue = iota
	End
	Error
)

type tone struct {
	freq   float64
	volume float64
	decay  float64
}

var tones = map[Cue]tone{
	// high, snappy tick
	Start: {freq: 1200, volume: 0.5, decay: 60},
	// lower tick with a longer tail
	End: {freq: 900, volume: 0.5, decay: 40},
	// low double beep
	Error: {freq: 350, volume: 0.6, decay: 30},
}

// tickDuration keeps a tail long enough for the sink buffer to fill.
const tickDuration = 0.2

// Samples renders cue as mono PCM at sampleRate.
func Samples(cue Cue, sampleRate int) []int16 {
	t, ok := tones[cue]
	if !ok {
		return nil
	}
	if cue == Error {
		beep := generateTick(sampleRate, t, 0.08)
		gap := make([]int16, int(float64(sampleRate)*0.05))
		out := make([]int16, 0, len(beep)*2+len(gap))
		out = append(out, beep...)
		out = append(out, gap...)
		return append(out, beep...)
	}
	return generateTick(sampleRate, t, tickDuration)
}

func generateTick(sampleRate int, t tone, duration float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range n {
		sec := float64(i) / float64(sampleRate)
		envelope := math.Exp(-sec * t.decay)
		samples[i] = int16(math.Sin(2*math.Pi*t.freq*sec) * 32767 * t.volume * envelope)
	}
	return samples
}

// Player plays cues without blocking the caller. A nil *Player is silent.
type Player struct {
	out        audio.Player
	sampleRate int

	once  sync.Once
	cache map[Cue][]int16

	mu       sync.Mutex
	disabled bool
}

func New(out audio.Player, sampleRate int) *Player {
	return &Player{out: out, sampleRate: sampleRate}
}

func (p *Player) Disable() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.disabled = true
	p.mu.Unlock()
}

func (p *Player) Play(cue Cue) {
	if p == nil || p.out == nil {
		return
	}
	p.mu.Lock()
	disabled := p.disabled
	p.mu.Unlock()
	if disabled {
		return
	}

	p.once.Do(func() {
		p.cache = make(map[Cue][]int16, len(tones))
		for c := range tones {
			p.cache[c] = Samples(c, p.sampleRate)
		}
	})
	samples := p.cache[cue]
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		p.out.Play(ctx, samples)
	}()
}
