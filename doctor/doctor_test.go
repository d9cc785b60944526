package doctor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRunChecks(t *testing.T) {
	tests := []struct {
		name     string
		checks   []check
		wantCode int
		wantOut  []string
	}{
		{
			name: "all pass",
			checks: []check{
				{"a", func(context.Context) (string, error) { return "ok", nil }},
			},
			wantCode: 0,
			wantOut:  []string{"[1/1] a", "PASS: ok", "All checks passed!"},
		},
		{
			name: "warning does not fail",
			checks: []check{
				{"a", func(context.Context) (string, error) { return "", warnf("quiet mic") }},
			},
			wantCode: 0,
			wantOut:  []string{"WARN: quiet mic"},
		},
		{
			name: "failure",
			checks: []check{
				{"a", func(context.Context) (string, error) { return "ok", nil }},
				{"b", func(context.Context) (string, error) { return "", errors.New("unreachable") }},
			},
			wantCode: 1,
			wantOut:  []string{"[2/2] b", "FAIL: unreachable", "1 check(s) failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := runChecks(context.Background(), &out, tt.checks); code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestPeakRMS(t *testing.T) {
	samples := make([]int16, 640)
	for i := 320; i < 640; i++ {
		samples[i] = 1000
	}
	if got := peakRMS(samples, 320); got != 1000 {
		t.Errorf("peakRMS = %v, want 1000", got)
	}
	if got := peakRMS(samples[:100], 320); got != 0 {
		t.Errorf("short buffer peakRMS = %v, want 0", got)
	}
}

func TestTranscriberCheckWarnsWithoutKeys(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	if _, err := checkTranscriber(context.Background()); !errors.Is(err, errWarn) {
		t.Errorf("err = %v, want warning", err)
	}
	t.Setenv("GROQ_API_KEY", "k")
	detail, err := checkTranscriber(context.Background())
	if err != nil || detail != "groq (batch)" {
		t.Errorf("detail = %q, err = %v", detail, err)
	}
}
