package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Pacing  PacingConfig  `yaml:"pacing"`
	Speech  SpeechConfig  `yaml:"speech"`
	Logging LoggingConfig `yaml:"logging"`
	Roles   []Role        `yaml:"roles"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PacingConfig struct {
	NarrationDelay time.Duration `yaml:"narration_delay"`
	FeedbackDelay  time.Duration `yaml:"feedback_delay"`
}

type SpeechConfig struct {
	Rate            float64       `yaml:"rate"`
	Language        string        `yaml:"language"`
	Voice           string        `yaml:"voice"`
	Device          string        `yaml:"device"`
	NoSpeechTimeout time.Duration `yaml:"no_speech_timeout"`
	Cues            *bool         `yaml:"cues"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Role is one selectable interview track. ID is what the backend expects.
type Role struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// DefaultRoles mirrors the role catalogue served by the reference backend.
var DefaultRoles = []Role{
	{ID: "software_engineer", Label: "Software Engineer"},
	{ID: "data_scientist", Label: "Data Scientist"},
	{ID: "product_manager", Label: "Product Manager"},
	{ID: "marketing_manager", Label: "Marketing Manager"},
	{ID: "sales_representative", Label: "Sales Representative"},
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.Validate()
	return c
}

// Load reads a YAML file and validates it. A missing file is not an error
// when optional is true; defaults are returned instead.
func Load(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values and fills defaults in place.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:5000"
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}

	if c.Pacing.NarrationDelay == 0 {
		c.Pacing.NarrationDelay = time.Second
	}
	if c.Pacing.FeedbackDelay == 0 {
		c.Pacing.FeedbackDelay = 3 * time.Second
	}
	if c.Pacing.NarrationDelay < 0 || c.Pacing.FeedbackDelay < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}

	if c.Speech.Rate == 0 {
		c.Speech.Rate = 0.8
	}
	if c.Speech.Rate < 0.25 || c.Speech.Rate > 4 {
		return fmt.Errorf("speech.rate must be within [0.25, 4], got %v", c.Speech.Rate)
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.Speech.NoSpeechTimeout == 0 {
		c.Speech.NoSpeechTimeout = 8 * time.Second
	}
	if c.Speech.Cues == nil {
		on := true
		c.Speech.Cues = &on
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if len(c.Roles) == 0 {
		c.Roles = append([]Role(nil), DefaultRoles...)
	}
	seen := make(map[string]bool, len(c.Roles))
	for i, r := range c.Roles {
		if r.ID == "" {
			return fmt.Errorf("roles[%d].id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate role id %q", r.ID)
		}
		seen[r.ID] = true
		if r.Label == "" {
			c.Roles[i].Label = r.ID
		}
	}

	return nil
}

// CuesEnabled reports whether listening start/stop tones are on.
func (c *Config) CuesEnabled() bool {
	return c.Speech.Cues == nil || *c.Speech.Cues
}
