package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"interviewer/nettrace"
)

const groqURL = "https://api.groq.com/openai/v1/audio/transcriptions"

// Groq transcribes a whole answer with Whisper once capture stops.
type Groq struct {
	apiKey string
	apiURL string
	client *nettrace.Client
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		apiKey: apiKey,
		apiURL: groqURL,
		client: nettrace.NewClient(60 * time.Second),
	}
}

func (g *Groq) Name() string    { return "groq" }
func (g *Groq) Streaming() bool { return false }

func (g *Groq) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	go g.client.Warm(g.apiURL)
	return newBatchSession(func(audio []byte) (*batchResult, error) {
		return g.transcribe(ctx, audio, cfg.Language)
	})
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

// noSpeechThreshold marks Whisper output as a hallucination on silence.
const noSpeechThreshold = 0.8

func (g *Groq) transcribe(ctx context.Context, audio []byte, lang string) (*batchResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "answer.flac")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	writer.WriteField("model", "whisper-large-v3-turbo")
	writer.WriteField("response_format", "verbose_json")
	if lang != "" {
		writer.WriteField("language", lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	noSpeech := len(gResp.Segments) > 0
	for _, seg := range gResp.Segments {
		if seg.NoSpeechProb < noSpeechThreshold {
			noSpeech = false
			break
		}
	}

	res := &batchResult{
		Text:     gResp.Text,
		NoSpeech: noSpeech,
		Metrics:  resp.Metrics,
	}
	if remaining := nettrace.FirstNonEmpty(resp.Header, "x-ratelimit-remaining-requests"); remaining != "?" {
		res.RateLimit = remaining + "/" + nettrace.FirstNonEmpty(resp.Header, "x-ratelimit-limit-requests")
	}
	return res, nil
}
