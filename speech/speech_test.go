package speech

import (
	"errors"
	"testing"
)

func TestParseReason(t *testing.T) {
	tests := []struct {
		code string
		want Reason
	}{
		{"no-speech", ReasonNoSpeech},
		{"audio-capture", ReasonAudioCapture},
		{"not-allowed", ReasonPermissionDenied},
		{"service-not-allowed", ReasonPermissionDenied},
		{"network", ReasonOther},
		{"", ReasonOther},
	}
	for _, tt := range tests {
		if got := ParseReason(tt.code); got != tt.want {
			t.Errorf("ParseReason(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"no-speech", "Speech recognition error: No speech detected. Please try again."},
		{"audio-capture", "Speech recognition error: No microphone found. Please check your microphone."},
		{"not-allowed", "Speech recognition error: Microphone access denied. Please allow microphone access."},
		{"network", "Speech recognition error: network"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := NewError(tt.code, nil).Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewError("network", cause)
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	if err.Error() != "speech network: socket closed" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestEventKindString(t *testing.T) {
	if Started.String() != "started" || Errored.String() != "errored" {
		t.Errorf("got %s, %s", Started, Errored)
	}
	if EventKind(9).String() != "EventKind(9)" {
		t.Errorf("got %s", EventKind(9))
	}
}
