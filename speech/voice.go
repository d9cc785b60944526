package speech

import (
	"math"
	"sync"
	"time"

	"interviewer/audio"
)

const (
	tickInterval   = 100 * time.Millisecond
	voiceFrameMs   = 20
	voiceFrameSize = audio.SampleRate * voiceFrameMs / 1000 // samples
	voiceDebounce  = 3                                      // consecutive loud frames to confirm voice
	speechMinRatio = 0.10
)

// rmsThreshold is the frame energy, on the int16 scale, above which a frame
// counts as voiced. Room noise on a laptop mic sits well under it.
const rmsThreshold = 500

// voiceDetector classifies 20ms frames by RMS energy.
type voiceDetector struct {
	mu           sync.Mutex
	buf          []int16
	run          int
	heard        bool
	totalFrames  int
	speechFrames int
	tickTotal    int
	tickSpeech   int
}

func (d *voiceDetector) Process(pcm []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = append(d.buf, audio.Samples(pcm)...)
	for len(d.buf) >= voiceFrameSize {
		frame := d.buf[:voiceFrameSize]
		d.buf = d.buf[voiceFrameSize:]

		d.totalFrames++
		if rms(frame) < rmsThreshold {
			d.run = 0
			continue
		}
		d.speechFrames++
		d.run++
		if d.run >= voiceDebounce {
			d.heard = true
		}
	}
}

// Heard reports whether sustained voice was seen since the capture began.
func (d *voiceDetector) Heard() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.heard
}

// HasSpeechTick reports whether enough frames since the previous call were
// voiced.
func (d *voiceDetector) HasSpeechTick() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.totalFrames - d.tickTotal
	s := d.speechFrames - d.tickSpeech
	d.tickTotal, d.tickSpeech = d.totalFrames, d.speechFrames
	if t == 0 {
		return false
	}
	return float64(s)/float64(t) >= speechMinRatio
}

func rms(frame []int16) float64 {
	var sum float64
	for _, s := range frame {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// silenceMonitor fires once if the opening window of a capture is silent.
type silenceMonitor struct {
	limit  int
	ticks  int
	speech int
}

func newSilenceMonitor(timeout time.Duration) *silenceMonitor {
	return &silenceMonitor{limit: int(timeout / tickInterval)}
}

func (m *silenceMonitor) Tick(hasSpeech bool) bool {
	if m.limit <= 0 {
		return false
	}
	m.ticks++
	if hasSpeech {
		m.speech++
	}
	return m.ticks == m.limit && float64(m.speech)/float64(m.ticks) < speechMinRatio
}
