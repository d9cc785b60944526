package transcriber

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"interviewer/encoder"
	"interviewer/log"
)

const (
	streamChunkMs      = 200
	streamChunkBytes   = encoder.SampleRate * encoder.Channels * (encoder.BitsPerSample / 8) * streamChunkMs / 1000
	streamFinalizeIdle = 200 * time.Millisecond
	streamFinalizeMax  = time.Second
)

// wireStream is one provider connection.
type wireStream interface {
	Send(pcm []byte) error
	Finalize() error
	Recv() (wireUpdate, error)
	Close() error
}

type wireUpdate struct {
	Transcript   string
	Final        bool
	FromFinalize bool
}

type streamStats struct {
	connect  time.Duration
	chunks   int
	bytes    uint64
	finals   int
	interims int
}

// streamSession dials in the background so capture can start immediately.
// Audio fed before the connection is ready is queued.
type streamSession struct {
	ws        wireStream
	audioCh   chan []byte
	updates   chan Update
	connected chan struct{}
	sendDone  chan struct{}
	recvDone  chan struct{}
	finalized chan struct{}
	finalOnce sync.Once
	startedAt time.Time

	feedMu  sync.Mutex
	feedBuf []byte

	mu        sync.Mutex
	committed string
	err       error
	closing   bool
	done      bool
	stats     streamStats
}

func newStreamSession(dial func() (wireStream, error)) *streamSession {
	ss := &streamSession{
		audioCh:   make(chan []byte, 128),
		updates:   make(chan Update, 16),
		connected: make(chan struct{}),
		sendDone:  make(chan struct{}),
		recvDone:  make(chan struct{}),
		finalized: make(chan struct{}),
		startedAt: time.Now(),
	}

	go func() {
		start := time.Now()
		ws, err := dial()
		ss.mu.Lock()
		ss.stats.connect = time.Since(start)
		ss.err = err
		ss.mu.Unlock()

		if err != nil {
			close(ss.sendDone)
			close(ss.recvDone)
			close(ss.connected)
			return
		}
		ss.ws = ws
		close(ss.connected)
		go ss.runSender()
		go ss.runReceiver()
	}()

	return ss
}

func (s *streamSession) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

func (s *streamSession) Feed(pcm []byte) {
	if s.failed() {
		return
	}

	s.feedMu.Lock()
	s.feedBuf = append(s.feedBuf, pcm...)
	var chunks [][]byte
	for len(s.feedBuf) >= streamChunkBytes {
		chunk := make([]byte, streamChunkBytes)
		copy(chunk, s.feedBuf)
		s.feedBuf = s.feedBuf[streamChunkBytes:]
		chunks = append(chunks, chunk)
	}
	s.feedMu.Unlock()

	for _, chunk := range chunks {
		select {
		case s.audioCh <- chunk:
		default:
			log.Warn("stream audio queue full, dropping chunk")
		}
	}
}

func (s *streamSession) Updates() <-chan Update {
	return s.updates
}

func (s *streamSession) Close() (Result, error) {
	defer s.closeUpdates()
	<-s.connected

	s.feedMu.Lock()
	tail := s.feedBuf
	s.feedBuf = nil
	s.feedMu.Unlock()

	if s.failed() {
		close(s.audioCh)
		s.mu.Lock()
		err := s.err
		s.mu.Unlock()
		return Result{NoSpeech: true}, err
	}

	if len(tail) > 0 {
		select {
		case s.audioCh <- tail:
		default:
		}
	}
	close(s.audioCh)
	<-s.sendDone

	select {
	case <-s.finalized:
		time.Sleep(streamFinalizeIdle)
	case <-s.recvDone:
	case <-time.After(streamFinalizeMax):
	}

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.ws.Close()
	select {
	case <-s.recvDone:
	case <-time.After(2 * time.Second):
		log.Warn("stream receiver drain timeout")
	}

	s.mu.Lock()
	text := strings.TrimSpace(s.committed)
	stats := s.stats
	err := s.err
	s.mu.Unlock()

	if text != "" {
		select {
		case s.updates <- Update{Text: text, Final: true}:
		default:
		}
	}
	return Result{
		Text:     text,
		NoSpeech: text == "",
		Metrics:  s.formatMetrics(stats),
	}, err
}

func (s *streamSession) runSender() {
	defer close(s.sendDone)
	for chunk := range s.audioCh {
		if err := s.ws.Send(chunk); err != nil {
			s.setErr(err)
			for range s.audioCh {
			}
			return
		}
		s.mu.Lock()
		s.stats.chunks++
		s.stats.bytes += uint64(len(chunk))
		s.mu.Unlock()
	}
	if err := s.ws.Finalize(); err != nil {
		s.setErr(err)
	}
}

func (s *streamSession) runReceiver() {
	defer close(s.recvDone)
	for {
		u, err := s.ws.Recv()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if !closing {
				s.setErr(err)
			}
			return
		}

		if u.FromFinalize {
			s.finalOnce.Do(func() { close(s.finalized) })
		}

		s.mu.Lock()
		if u.Final {
			s.stats.finals++
			if u.Transcript != "" {
				s.committed = join(s.committed, u.Transcript)
			}
		} else {
			s.stats.interims++
		}
		preview := s.committed
		if !u.Final {
			preview = join(preview, u.Transcript)
		}
		if preview != "" && !s.done {
			select {
			case s.updates <- Update{Text: preview}:
			default:
			}
		}
		s.mu.Unlock()
	}
}

// closeUpdates closes the channel under mu so a receiver that outlived the
// drain timeout never sends on it.
func (s *streamSession) closeUpdates() {
	s.mu.Lock()
	s.done = true
	close(s.updates)
	s.mu.Unlock()
}

func (s *streamSession) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *streamSession) formatMetrics(st streamStats) []string {
	bytesPerSec := float64(encoder.SampleRate * encoder.Channels * (encoder.BitsPerSample / 8))
	return []string{
		fmt.Sprintf("audio: %.1fs | %d chunks | %.1f KB", float64(st.bytes)/bytesPerSec, st.chunks, float64(st.bytes)/1024),
		fmt.Sprintf("connect: %dms", st.connect.Milliseconds()),
		fmt.Sprintf("recv: %d final, %d interim", st.finals, st.interims),
		fmt.Sprintf("total: %dms", time.Since(s.startedAt).Milliseconds()),
	}
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
