package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"interviewer/encoder"
)

const deepgramURL = "wss://api.deepgram.com/v1/listen"

// Deepgram streams PCM over a websocket and previews interim hypotheses.
type Deepgram struct {
	apiKey   string
	endpoint string
	model    string
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{apiKey: apiKey, endpoint: deepgramURL, model: "nova-3"}
}

func (d *Deepgram) Name() string    { return "deepgram" }
func (d *Deepgram) Streaming() bool { return true }

func (d *Deepgram) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	return newStreamSession(func() (wireStream, error) {
		return d.dial(ctx, cfg)
	}), nil
}

type deepgramMessage struct {
	Type         string `json:"type"`
	IsFinal      bool   `json:"is_final"`
	SpeechFinal  bool   `json:"speech_final"`
	FromFinalize bool   `json:"from_finalize"`
	Channel      struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type deepgramStream struct {
	conn *websocket.Conn
}

func (d *Deepgram) dial(ctx context.Context, cfg SessionConfig) (*deepgramStream, error) {
	endpoint, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, err
	}

	q := endpoint.Query()
	q.Set("model", d.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", encoder.SampleRate))
	q.Set("channels", fmt.Sprintf("%d", encoder.Channels))
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	endpoint.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("deepgram dial: HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("deepgram dial: %w", err)
	}
	return &deepgramStream{conn: conn}, nil
}

func (s *deepgramStream) Send(pcm []byte) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (s *deepgramStream) Finalize() error {
	return s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Finalize"}`))
}

func (s *deepgramStream) Recv() (wireUpdate, error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return wireUpdate{}, err
		}

		var msg deepgramMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return wireUpdate{}, err
		}
		// Metadata and SpeechStarted frames carry no transcript.
		if msg.Type != "" && msg.Type != "Results" {
			continue
		}

		transcript := ""
		if len(msg.Channel.Alternatives) > 0 {
			transcript = msg.Channel.Alternatives[0].Transcript
		}
		return wireUpdate{
			Transcript:   strings.TrimSpace(transcript),
			Final:        msg.IsFinal || msg.SpeechFinal || msg.FromFinalize,
			FromFinalize: msg.FromFinalize,
		}, nil
	}
}

func (s *deepgramStream) Close() error {
	deadline := time.Now().Add(time.Second)
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
