package audio

import (
	"context"
	"sync"
	"time"
)

const fakeFrameSize = 1024

// FakeContext serves fixed PCM as microphone input and records playback.
type FakeContext struct {
	pcm      []byte
	realtime bool
	Player   *FakePlayer
	Devs     []DeviceInfo
}

// NewFakeContext feeds pcm (little-endian 16-bit mono) to every capture,
// followed by silence. realtime paces chunks at the capture sample rate.
func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime, Player: &FakePlayer{}}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.Devs, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, audioDone: make(chan struct{})}, nil
}

func (f *FakeContext) NewPlayer(int) (Player, error) { return f.Player, nil }

type FakeCapture struct {
	pcm       []byte
	realtime  bool
	audioDone chan struct{}

	mu     sync.Mutex
	cb     DataCallback
	stopCh chan struct{}
	fed    chan struct{}
}

// AudioDone closes once the whole clip has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.fed = make(chan struct{})
	stop, fed, done := f.stopCh, f.fed, f.audioDone

	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeFrameSize) * time.Second / SampleRate
	}
	chunkBytes := fakeFrameSize * 2

	go func() {
		defer close(fed)
		silence := make([]byte, chunkBytes)
		pos := 0
		finished := false
		for {
			if cb := f.callback(); cb != nil {
				if pos < len(f.pcm) {
					end := min(pos+chunkBytes, len(f.pcm))
					chunk := append([]byte(nil), f.pcm[pos:end]...)
					cb(chunk, uint32(len(chunk)/2))
					pos = end
				} else {
					if !finished {
						finished = true
						close(done)
					}
					cb(silence, fakeFrameSize)
				}
			}
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.fed
	f.audioDone = make(chan struct{})
}

func (f *FakeCapture) Close() {}

// FakePlayer records what it was asked to play. With Hold set, Play blocks
// until ctx is done.
type FakePlayer struct {
	mu     sync.Mutex
	played [][]int16
	Hold   bool
}

func (p *FakePlayer) Play(ctx context.Context, samples []int16) error {
	p.mu.Lock()
	p.played = append(p.played, samples)
	hold := p.Hold
	p.mu.Unlock()
	if hold {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

func (p *FakePlayer) Close() {}

func (p *FakePlayer) Played() [][]int16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]int16(nil), p.played...)
}
