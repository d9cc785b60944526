package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config gets defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "relative base url",
			config:  Config{Backend: BackendConfig{BaseURL: "localhost:5000/api"}},
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			config:  Config{Backend: BackendConfig{BaseURL: "ftp://example.com"}},
			wantErr: true,
		},
		{
			name:    "rate too fast",
			config:  Config{Speech: SpeechConfig{Rate: 5}},
			wantErr: true,
		},
		{
			name:    "negative feedback delay",
			config:  Config{Pacing: PacingConfig{FeedbackDelay: -time.Second}},
			wantErr: true,
		},
		{
			name:    "role without id",
			config:  Config{Roles: []Role{{Label: "Nameless"}}},
			wantErr: true,
		},
		{
			name:    "duplicate role",
			config:  Config{Roles: []Role{{ID: "a"}, {ID: "a"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Backend.BaseURL != "http://localhost:5000" {
		t.Errorf("BaseURL = %q", c.Backend.BaseURL)
	}
	if c.Pacing.NarrationDelay != time.Second {
		t.Errorf("NarrationDelay = %v, want 1s", c.Pacing.NarrationDelay)
	}
	if c.Pacing.FeedbackDelay != 3*time.Second {
		t.Errorf("FeedbackDelay = %v, want 3s", c.Pacing.FeedbackDelay)
	}
	if c.Speech.Rate != 0.8 {
		t.Errorf("Rate = %v, want 0.8", c.Speech.Rate)
	}
	if len(c.Roles) != len(DefaultRoles) {
		t.Errorf("got %d roles, want %d", len(c.Roles), len(DefaultRoles))
	}
	if !c.CuesEnabled() {
		t.Error("cues should default to on")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend:
  base_url: https://interview.example.com
  timeout: 10s
pacing:
  feedback_delay: 1500ms
speech:
  rate: 1.1
  cues: false
roles:
  - id: backend-engineer
    label: Backend Engineer
  - id: sre
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "https://interview.example.com" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Pacing.FeedbackDelay != 1500*time.Millisecond {
		t.Errorf("FeedbackDelay = %v", cfg.Pacing.FeedbackDelay)
	}
	if cfg.Pacing.NarrationDelay != time.Second {
		t.Errorf("NarrationDelay default not applied: %v", cfg.Pacing.NarrationDelay)
	}
	if cfg.Speech.Rate != 1.1 {
		t.Errorf("Rate = %v", cfg.Speech.Rate)
	}
	if cfg.CuesEnabled() {
		t.Error("cues should be off")
	}
	if len(cfg.Roles) != 2 || cfg.Roles[1].Label != "sre" {
		t.Errorf("roles = %+v", cfg.Roles)
	}
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := Load(path, false); err == nil {
		t.Error("expected error for missing required file")
	}

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("optional Load() error = %v", err)
	}
	if cfg.Speech.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Speech.Language)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, false); err == nil {
		t.Error("expected parse error")
	}
}
