package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"interviewer/api"
	"interviewer/audio"
	"interviewer/beep"
	"interviewer/config"
	"interviewer/doctor"
	"interviewer/hotkey"
	"interviewer/interview"
	"interviewer/log"
	"interviewer/shutdown"
	"interviewer/speech"
	"interviewer/transcriber"
	"interviewer/tts"
)

var version = "dev"

// cueRate is the playback rate for listening cues.
const cueRate = 44100

type options struct {
	configPath string
	backend    string
	device     string
	logPath    string
	level      string
	headless   bool
	mute       bool
	noHotkey   bool
	longPress  time.Duration
}

func run() {
	configFlag := flag.String("config", "", "YAML config file (default: $INTERVIEWER_CONFIG or ./interviewer.yaml)")
	backendFlag := flag.String("backend", "", "Backend base URL, overrides the config file")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	levelFlag := flag.String("loglevel", "", "Diagnostics log level (debug, info, warn, error)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	headlessFlag := flag.Bool("headless", false, "Headless mode, driven by commands on stdin")
	muteFlag := flag.Bool("mute", false, "Disable narration")
	noHotkeyFlag := flag.Bool("nohotkey", false, "Do not register the global "+hotkey.Combo+" shortcut")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for push-to-talk vs tap (e.g., 350ms)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("interviewer %s\n", version)
		os.Exit(0)
	}

	if *setupFlag && *deviceFlag == "" {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Printf("Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := selectDevice(actx)
		actx.Close()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if dev == nil {
			os.Exit(0)
		}
		*deviceFlag = dev.Name
	}

	opts := options{
		configPath: *configFlag,
		backend:    *backendFlag,
		device:     *deviceFlag,
		logPath:    *logPathFlag,
		level:      *levelFlag,
		headless:   *headlessFlag,
		mute:       *muteFlag,
		noHotkey:   *noHotkeyFlag,
		longPress:  *longPressFlag,
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(opts.logPath, cfg.Logging.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	if *doctorFlag {
		os.Exit(doctor.Run(ctx, cfg, os.Stdout))
	}

	if err := log.Init(cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.Info(fmt.Sprintf("interviewer %s starting, backend %s", version, cfg.Backend.BaseURL))

	if !opts.headless && !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: stdin is not a terminal (use -headless for scripted sessions)")
		os.Exit(1)
	}

	code := runSession(ctx, cfg, opts)
	stop()
	log.Close()
	os.Exit(code)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	path, optional := opts.configPath, false
	if path == "" {
		path = os.Getenv("INTERVIEWER_CONFIG")
	}
	if path == "" {
		path, optional = "interviewer.yaml", true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Backend.BaseURL = opts.backend
	}
	if opts.device != "" {
		cfg.Speech.Device = opts.device
	}
	if opts.level != "" {
		cfg.Logging.Level = opts.level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// speechStack holds the audio resources behind the recognizer and the
// narrator so they can be released together.
type speechStack struct {
	actx  audio.Context
	rec   speech.Recognizer
	synth speech.Synthesizer
}

func (s *speechStack) Close() {
	if s.synth != nil {
		s.synth.Cancel()
	}
	if s.rec != nil {
		s.rec.Close()
	}
	if s.actx != nil {
		s.actx.Close()
	}
}

func newSpeechStack(cfg *config.Config, mute bool) *speechStack {
	s := &speechStack{synth: speech.Mute{}}

	actx, err := audio.NewContext()
	if err != nil {
		log.Warnf("audio unavailable: %v", err)
		return s
	}
	s.actx = actx

	if !mute {
		provider, err := tts.New(cfg.Speech.Voice)
		switch {
		case err != nil:
			log.Warnf("narration disabled: %v", err)
		default:
			player, err := actx.NewPlayer(provider.SampleRate())
			if err != nil {
				log.Warnf("narration disabled: %v", err)
			} else {
				s.synth = speech.NewNarrator(provider, player)
			}
		}
	}

	tr, err := transcriber.New()
	if err != nil {
		log.Warnf("speech input disabled: %v", err)
		return s
	}

	var device *audio.DeviceInfo
	if cfg.Speech.Device != "" {
		device, err = audio.FindDevice(actx, cfg.Speech.Device)
		if err != nil {
			log.Warnf("microphone %q: %v, using system default", cfg.Speech.Device, err)
			device = nil
		}
	}

	var cues *beep.Player
	if cfg.CuesEnabled() {
		if out, err := actx.NewPlayer(cueRate); err == nil {
			cues = beep.New(out, cueRate)
		} else {
			log.Warnf("listening cues disabled: %v", err)
		}
	}

	rec, err := speech.NewMicRecognizer(speech.MicConfig{
		Audio:           actx,
		Device:          device,
		Transcriber:     tr,
		Language:        cfg.Speech.Language,
		NoSpeechTimeout: cfg.Speech.NoSpeechTimeout,
		Cues:            cues,
	})
	if err != nil {
		log.Warnf("speech input disabled: %v", err)
		return s
	}
	s.rec = rec
	log.Info(fmt.Sprintf("speech input via %s, device %s", tr.Name(), deviceName(device)))
	return s
}

func deviceName(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "system default"
	}
	if audio.IsBluetooth(dev.Name) {
		return dev.Name + " (bluetooth)"
	}
	return dev.Name
}

// surface is the front end a session renders to.
type surface interface {
	interview.View
	interview.Confirmer
}

func newController(cfg *config.Config, stack *speechStack, view surface, exec interview.Executor) (*interview.Controller, *api.Client) {
	client := api.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	ctrl := interview.New(interview.Config{
		Backend:     client,
		Recognizer:  stack.rec,
		Synthesizer: stack.synth,
		View:        view,
		Confirmer:   view,
		Executor:    exec,
		Pacing: interview.Pacing{
			NarrationDelay: cfg.Pacing.NarrationDelay,
			FeedbackDelay:  cfg.Pacing.FeedbackDelay,
			Rate:           cfg.Speech.Rate,
		},
		RequestTimeout: cfg.Backend.Timeout,
	})
	return ctrl, client
}

// applyAction maps a hotkey action onto the listening toggle.
func applyAction(ctrl controls, a hotkey.Action) {
	if (a == hotkey.Listen) != ctrl.State().Listening {
		ctrl.ToggleListening()
	}
}

// startHotkey forwards talk actions from hk to ctrl until ctx is done. The
// returned func unregisters the shortcut.
func startHotkey(ctx context.Context, hk hotkey.Hotkey, ctrl controls, longPress time.Duration) func() {
	if err := hk.Register(); err != nil {
		log.Warnf("global shortcut %s unavailable: %v", hotkey.Combo, err)
		return func() {}
	}
	talk := hotkey.NewTalk(ctx, hk, longPress, func() bool { return ctrl.State().Listening })
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-talk.Actions():
				applyAction(ctrl, a)
			}
		}
	}()
	return hk.Unregister
}

func runSession(ctx context.Context, cfg *config.Config, opts options) int {
	stack := newSpeechStack(cfg, opts.mute)
	defer stack.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := interview.NewLoop()

	if opts.headless {
		view := newHeadlessView(os.Stdout)
		ctrl, client := newController(cfg, stack, view, loop)
		defer ctrl.Close()
		client.Warm()
		go loop.Run(ctx)
		go ctrl.PumpSpeechEvents(ctx)
		if !opts.noHotkey {
			defer startHotkey(ctx, hotkey.New(), ctrl, opts.longPress)()
		}
		done := make(chan int, 1)
		go func() { done <- runHeadless(ctx, ctrl, view, os.Stdin) }()
		select {
		case code := <-done:
			return code
		case <-ctx.Done():
			return 0
		}
	}

	var program *tea.Program
	view := newTUIView(ctx, func(msg tea.Msg) { program.Send(msg) })
	ctrl, client := newController(cfg, stack, view, loop)
	defer ctrl.Close()
	program = tea.NewProgram(newTUIModel(ctrl, cfg.Roles), tea.WithAltScreen(), tea.WithContext(ctx))

	client.Warm()
	go loop.Run(ctx)
	go ctrl.PumpSpeechEvents(ctx)
	if !opts.noHotkey {
		defer startHotkey(ctx, hotkey.New(), ctrl, opts.longPress)()
	}
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Errorf("tui: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if state := ctrl.State(); state.Session != nil {
		log.SessionEnd(state.Session.ID, "quit")
	}
	return 0
}
