package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Flac encodes streamed 16-bit mono PCM into an in-memory FLAC file.
// Write may be called from the capture callback while Close runs elsewhere.
type Flac struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	enc     *flac.Encoder
	pending []int16
	frames  uint64
	closed  bool
}

func NewFlac() (*Flac, error) {
	f := &Flac{}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(&f.buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	f.enc = enc
	return f, nil
}

// Write takes little-endian PCM bytes and encodes every full block.
func (f *Flac) Write(pcm []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, fmt.Errorf("flac encoder closed")
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		f.pending = append(f.pending, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	for len(f.pending) >= BlockSize {
		if err := f.writeBlock(f.pending[:BlockSize]); err != nil {
			return 0, err
		}
		f.pending = f.pending[BlockSize:]
	}
	return len(pcm), nil
}

// Close flushes the partial tail block and finishes the stream.
func (f *Flac) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if len(f.pending) > 0 {
		if err := f.writeBlock(f.pending); err != nil {
			return err
		}
		f.pending = nil
	}
	return f.enc.Close()
}

func (f *Flac) writeBlock(block []int16) error {
	samples := make([]int32, len(block))
	for i, s := range block {
		samples[i] = int32(s)
	}
	fr := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  len(block),
		}},
	}
	if err := f.enc.WriteFrame(fr); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	f.frames += uint64(len(block))
	return nil
}

func (f *Flac) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Bytes()
}

// Frames is the number of samples encoded so far.
func (f *Flac) Frames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

// Duration is the encoded audio length in seconds.
func (f *Flac) Duration() float64 {
	return float64(f.Frames()) / SampleRate
}
