package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"interviewer/api"
	"interviewer/audio"
	"interviewer/clipboard"
	"interviewer/config"
	"interviewer/hotkey"
	"interviewer/transcriber"
	"interviewer/tts"
)

// errWarn marks a check whose failure degrades the session but does not
// block it.
var errWarn = errors.New("warning")

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

type warning struct{ msg string }

func (w warning) Error() string        { return w.msg }
func (w warning) Is(target error) bool { return target == errWarn }

func warnf(format string, args ...any) error {
	return warning{msg: fmt.Sprintf(format, args...)}
}

// Run executes diagnostics against cfg and returns an exit code (0 when no
// check failed).
func Run(ctx context.Context, cfg *config.Config, out io.Writer) int {
	fmt.Fprintln(out, "interviewer doctor - system diagnostics")
	fmt.Fprintln(out, "=======================================")

	checks := []check{
		{"terminal", checkTerminal},
		{"backend", func(ctx context.Context) (string, error) { return checkBackend(ctx, cfg) }},
		{"audio", func(ctx context.Context) (string, error) { return checkAudio(ctx, cfg, out) }},
		{"speech-to-text", checkTranscriber},
		{"narration", func(context.Context) (string, error) { return checkNarration(cfg) }},
		{"hotkey", checkHotkey},
		{"clipboard", checkClipboard},
	}
	return runChecks(ctx, out, checks)
}

func runChecks(ctx context.Context, out io.Writer, checks []check) int {
	failed := 0
	for i, c := range checks {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(checks), c.name)
		detail, err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(out, "  PASS: %s\n", detail)
		case errors.Is(err, errWarn):
			fmt.Fprintf(out, "  WARN: %v\n", err)
		default:
			failed++
			fmt.Fprintf(out, "  FAIL: %v\n", err)
		}
	}

	fmt.Fprintln(out)
	if failed > 0 {
		fmt.Fprintf(out, "%d check(s) failed. See details above.\n", failed)
		return 1
	}
	fmt.Fprintln(out, "All checks passed!")
	return 0
}

func checkTerminal(context.Context) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", warnf("stdin is not a terminal, use -headless for piped input")
	}
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return "", warnf("cannot read terminal size: %v", err)
	}
	if w < 60 {
		return "", warnf("terminal is %d columns wide, feedback wraps below 60", w)
	}
	return fmt.Sprintf("%dx%d", w, h), nil
}

func checkBackend(ctx context.Context, cfg *config.Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	m, err := api.New(cfg.Backend.BaseURL, cfg.Backend.Timeout).Ping(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reachable in %dms", cfg.Backend.BaseURL, m.Sum().Milliseconds()), nil
}

func checkAudio(ctx context.Context, cfg *config.Config, out io.Writer) (string, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return "", fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		return "", fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", errors.New("no capture devices found")
	}
	for _, d := range devices {
		fmt.Fprintf(out, "  device: %s\n", d.Name)
	}

	device, err := audio.FindDevice(actx, cfg.Speech.Device)
	if err != nil {
		return "", err
	}
	name := "system default"
	if device != nil {
		name = device.Name
		if audio.IsBluetooth(device.Name) {
			return "", warnf("%s looks like a Bluetooth headset, its mic profile lowers recognition quality", device.Name)
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return name, nil
	}
	fmt.Fprintln(out, "  Speak for two seconds...")
	level, err := measureLevel(ctx, actx, device, 2*time.Second)
	if err != nil {
		return "", fmt.Errorf("recording from %s: %w", name, err)
	}
	if level < 300 {
		return "", warnf("%s is very quiet (peak RMS %.0f), check the input gain", name, level)
	}
	return fmt.Sprintf("%s, peak RMS %.0f", name, level), nil
}

// measureLevel records for d and returns the loudest 20ms RMS.
func measureLevel(ctx context.Context, actx audio.Context, device *audio.DeviceInfo, d time.Duration) (float64, error) {
	capture, err := actx.NewCapture(device, audio.CaptureConfig{SampleRate: audio.SampleRate, Channels: 1})
	if err != nil {
		return 0, err
	}
	defer capture.Close()

	var mu sync.Mutex
	peak := 0.0
	capture.SetCallback(func(data []byte, _ uint32) {
		level := peakRMS(audio.Samples(data), audio.SampleRate/50)
		mu.Lock()
		peak = math.Max(peak, level)
		mu.Unlock()
	})
	if err := capture.Start(); err != nil {
		return 0, err
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
	capture.ClearCallback()
	capture.Stop()

	mu.Lock()
	defer mu.Unlock()
	return peak, ctx.Err()
}

func peakRMS(samples []int16, frame int) float64 {
	peak := 0.0
	for start := 0; start+frame <= len(samples); start += frame {
		var sum float64
		for _, s := range samples[start : start+frame] {
			sum += float64(s) * float64(s)
		}
		peak = math.Max(peak, math.Sqrt(sum/float64(frame)))
	}
	return peak
}

func checkTranscriber(context.Context) (string, error) {
	t, err := transcriber.New()
	if err != nil {
		return "", warnf("%v, answers must be typed", err)
	}
	mode := "batch"
	if t.Streaming() {
		mode = "streaming"
	}
	return fmt.Sprintf("%s (%s)", t.Name(), mode), nil
}

func checkNarration(cfg *config.Config) (string, error) {
	p, err := tts.New(cfg.Speech.Voice)
	if err != nil {
		return "", warnf("%v, questions will not be read aloud", err)
	}
	return fmt.Sprintf("%s voice %q at %dHz", p.Name(), cfg.Speech.Voice, p.SampleRate()), nil
}

func checkHotkey(context.Context) (string, error) {
	detail, err := hotkey.Diagnose()
	if err != nil {
		return "", warnf("%v, use Ctrl+R inside the app instead", err)
	}
	return detail, nil
}

func checkClipboard(context.Context) (string, error) {
	if !clipboard.Available() {
		return "", warnf("%v, summary copy disabled", clipboard.ErrUnavailable)
	}
	return "available", nil
}
