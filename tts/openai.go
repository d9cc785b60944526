package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"interviewer/audio"
	"interviewer/log"
	"interviewer/nettrace"
)

const (
	openAIURL        = "https://api.openai.com/v1/audio/speech"
	openAIModel      = "gpt-4o-mini-tts"
	openAISampleRate = 24000
	maxInputChars    = 4096
)

// OpenAI uses the speech endpoint with raw PCM output, which needs no decoder.
type OpenAI struct {
	apiKey string
	apiURL string
	voice  string
	client *nettrace.Client
}

func NewOpenAI(apiKey, voice string) *OpenAI {
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAI{
		apiKey: apiKey,
		apiURL: openAIURL,
		voice:  voice,
		client: nettrace.NewClient(30 * time.Second),
	}
}

func (o *OpenAI) Name() string    { return "openai" }
func (o *OpenAI) SampleRate() int { return openAISampleRate }

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

func (o *OpenAI) Synthesize(ctx context.Context, text string, speed float64) ([]int16, error) {
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}
	body, err := json.Marshal(speechRequest{
		Model:          openAIModel,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: "pcm",
		Speed:          speed,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai tts error %d: %s", resp.StatusCode, string(resp.Body))
	}
	log.Debugf("tts: %d chars -> %d bytes, ttfb %dms, total %dms",
		len(text), len(resp.Body), resp.Metrics.TTFB.Milliseconds(), resp.Metrics.Sum().Milliseconds())
	return audio.Samples(resp.Body), nil
}
