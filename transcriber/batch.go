package transcriber

import (
	"fmt"
	"strings"

	"interviewer/encoder"
	"interviewer/nettrace"
)

type batchResult struct {
	Text      string
	NoSpeech  bool
	Metrics   *nettrace.Metrics
	RateLimit string
}

type transcribeFunc func(audio []byte) (*batchResult, error)

// batchSession encodes the capture to FLAC as it arrives and uploads it on
// Close. It never emits interim updates.
type batchSession struct {
	enc        *encoder.Flac
	transcribe transcribeFunc
	updates    chan Update
}

func newBatchSession(transcribe transcribeFunc) (*batchSession, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}
	return &batchSession{
		enc:        enc,
		transcribe: transcribe,
		updates:    make(chan Update, 1),
	}, nil
}

func (bs *batchSession) Feed(pcm []byte) {
	bs.enc.Write(pcm)
}

func (bs *batchSession) Updates() <-chan Update {
	return bs.updates
}

func (bs *batchSession) Close() (Result, error) {
	defer close(bs.updates)

	if err := bs.enc.Close(); err != nil {
		return Result{}, err
	}
	if bs.enc.Frames() == 0 {
		return Result{NoSpeech: true}, nil
	}

	res, err := bs.transcribe(bs.enc.Bytes())
	if err != nil {
		return Result{}, err
	}

	text := strings.TrimSpace(res.Text)
	if res.NoSpeech {
		text = ""
	}
	if text != "" {
		bs.updates <- Update{Text: text, Final: true}
	}
	return Result{
		Text:     text,
		NoSpeech: text == "",
		Metrics:  bs.formatMetrics(res),
	}, nil
}

func (bs *batchSession) formatMetrics(res *batchResult) []string {
	raw := bs.enc.Frames() * 2
	encoded := uint64(len(bs.enc.Bytes()))
	lines := []string{
		fmt.Sprintf("audio: %.1fs | %.1f KB -> %.1f KB flac", bs.enc.Duration(), float64(raw)/1024, float64(encoded)/1024),
	}
	if m := res.Metrics; m != nil {
		reused := ""
		if m.ConnReused {
			reused = " (reused)"
		}
		lines = append(lines,
			fmt.Sprintf("conn: %dms%s | tls: %dms | ttfb: %dms", m.ConnWait.Milliseconds(), reused, m.TLS.Milliseconds(), m.TTFB.Milliseconds()),
			fmt.Sprintf("total: %dms", m.Sum().Milliseconds()),
		)
	}
	if res.RateLimit != "" {
		lines = append(lines, "rate limit: "+res.RateLimit)
	}
	return lines
}
