package speech

import (
	"context"
	"sync"
	"time"

	"interviewer/audio"
	"interviewer/beep"
	"interviewer/log"
	"interviewer/transcriber"
)

type MicConfig struct {
	Audio       audio.Context
	Device      *audio.DeviceInfo
	Transcriber transcriber.Transcriber
	Language    string
	// NoSpeechTimeout ends a capture with a no-speech error when its opening
	// window is silent. Zero disables the check.
	NoSpeechTimeout time.Duration
	Cues            *beep.Player
}

// MicRecognizer captures from the microphone and streams it to a
// speech-to-text provider. Only one capture runs at a time; Start while a
// capture is live is ignored.
type MicRecognizer struct {
	cfg    MicConfig
	events chan Event
	closed chan struct{}

	mu       sync.Mutex
	capture  audio.CaptureDevice
	stop     chan struct{}
	stopping bool
	done     chan struct{}
	isClosed bool
}

func NewMicRecognizer(cfg MicConfig) (*MicRecognizer, error) {
	if cfg.Audio == nil || cfg.Transcriber == nil {
		return nil, ErrUnsupported
	}
	return &MicRecognizer{
		cfg:    cfg,
		events: make(chan Event, 64),
		closed: make(chan struct{}),
	}, nil
}

func (r *MicRecognizer) Events() <-chan Event { return r.events }

func (r *MicRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isClosed {
		return ErrUnsupported
	}
	if r.stop != nil {
		return nil
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.stop, r.done)
	return nil
}

func (r *MicRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil || r.stopping {
		return
	}
	r.stopping = true
	close(r.stop)
}

// Close stops any capture and releases the device. Pending events are
// discarded.
func (r *MicRecognizer) Close() {
	r.mu.Lock()
	if r.isClosed {
		r.mu.Unlock()
		return
	}
	r.isClosed = true
	close(r.closed)
	done := r.done
	r.mu.Unlock()

	r.Stop()
	if done != nil {
		<-done
	}

	r.mu.Lock()
	if r.capture != nil {
		r.capture.Close()
		r.capture = nil
	}
	r.mu.Unlock()
}

func (r *MicRecognizer) emit(ev Event) {
	select {
	case r.events <- ev:
	case <-r.closed:
	}
}

func (r *MicRecognizer) fail(code string, err error) {
	if err != nil {
		log.Warnf("speech %s: %v", code, err)
	}
	r.cfg.Cues.Play(beep.Error)
	r.emit(Event{Kind: Errored, Err: NewError(code, err)})
}

func (r *MicRecognizer) device() (audio.CaptureDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capture != nil {
		return r.capture, nil
	}
	c, err := r.cfg.Audio.NewCapture(r.cfg.Device, audio.CaptureConfig{SampleRate: audio.SampleRate, Channels: 1})
	if err != nil {
		return nil, err
	}
	r.capture = c
	return c, nil
}

func (r *MicRecognizer) run(stop <-chan struct{}, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		r.stop = nil
		r.stopping = false
		r.mu.Unlock()
		close(done)
	}()

	capture, err := r.device()
	if err != nil {
		r.fail("audio-capture", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess, err := r.cfg.Transcriber.NewSession(ctx, transcriber.SessionConfig{Language: r.cfg.Language})
	if err != nil {
		r.fail("network", err)
		return
	}

	feed := &feeder{sess: sess}
	voice := &voiceDetector{}
	capture.SetCallback(func(data []byte, _ uint32) {
		feed.Feed(data)
		voice.Process(data)
	})
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		feed.Close()
		r.fail("audio-capture", err)
		return
	}

	r.cfg.Cues.Play(beep.Start)
	r.emit(Event{Kind: Started})

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for u := range sess.Updates() {
			r.emit(Event{Kind: Result, Transcript: u.Text, Final: u.Final})
		}
	}()

	var failure *Error
	monitor := newSilenceMonitor(r.cfg.NoSpeechTimeout)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-ticker.C:
			if monitor.Tick(voice.HasSpeechTick()) && !voice.Heard() {
				failure = NewError("no-speech", nil)
				break loop
			}
		}
	}

	capture.ClearCallback()
	capture.Stop()
	res, err := feed.Close()
	<-forwarded

	if failure == nil && err != nil {
		failure = NewError("network", err)
	}
	if failure != nil {
		log.Warnf("speech stopped: %v", failure)
		r.cfg.Cues.Play(beep.Error)
		r.emit(Event{Kind: Errored, Err: failure})
		return
	}
	for _, line := range res.Metrics {
		log.Debugf("stt: %s", line)
	}
	r.cfg.Cues.Play(beep.End)
	r.emit(Event{Kind: Ended})
}

// feeder keeps late capture callbacks away from a closed session.
type feeder struct {
	mu     sync.Mutex
	sess   transcriber.Session
	closed bool
}

func (f *feeder) Feed(pcm []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.sess.Feed(pcm)
	}
}

func (f *feeder) Close() (transcriber.Result, error) {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return f.sess.Close()
}
