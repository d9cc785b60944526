package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interviewer/nettrace"
)

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New("alloy"); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("New() error = %v, want ErrNoProvider", err)
	}
	t.Setenv("OPENAI_API_KEY", "k")
	p, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai" || p.SampleRate() != 24000 {
		t.Errorf("provider = %s @ %d", p.Name(), p.SampleRate())
	}
}

func TestOpenAISynthesize(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80})
	}))
	defer srv.Close()

	o := NewOpenAI("secret", "verse")
	o.apiURL = srv.URL
	o.client = nettrace.WithHTTPClient(srv.Client())

	samples, err := o.Synthesize(context.Background(), "Question 1 of 5", 0.8)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := []int16{1, -1, -32768}
	if len(samples) != len(want) {
		t.Fatalf("samples = %v, want %v", samples, want)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
	if got.Input != "Question 1 of 5" || got.Voice != "verse" || got.Speed != 0.8 || got.ResponseFormat != "pcm" {
		t.Errorf("request = %+v", got)
	}
}

func TestOpenAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	o := NewOpenAI("k", "")
	o.apiURL = srv.URL
	o.client = nettrace.WithHTTPClient(srv.Client())

	_, err := o.Synthesize(context.Background(), "hi", 1)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want 429", err)
	}
}

func TestOpenAITruncatesInput(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	o := NewOpenAI("k", "")
	o.apiURL = srv.URL
	o.client = nettrace.WithHTTPClient(srv.Client())

	if _, err := o.Synthesize(context.Background(), strings.Repeat("a", maxInputChars+10), 1); err != nil {
		t.Fatal(err)
	}
	if len(got.Input) != maxInputChars {
		t.Errorf("input length = %d, want %d", len(got.Input), maxInputChars)
	}
}
