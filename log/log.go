package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const appName = "interviewer"

var (
	diagLog    zerolog.Logger
	diagFile   *os.File
	answerFile *os.File
	logMu      sync.Mutex
	logReady   bool
	pid        int
	dir        string
)

// ResolveDir picks the log directory: the -logpath flag, then
// INTERVIEWER_LOG_PATH, then logging.dir from the config file, then the OS
// default.
func ResolveDir(flagPath, configPath string) (string, error) {
	if flagPath != "" {
		return absPath(flagPath)
	}
	if envPath := os.Getenv("INTERVIEWER_LOG_PATH"); envPath != "" {
		return absPath(envPath)
	}
	if configPath != "" {
		return absPath(configPath)
	}
	return getDefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens diagnostics_log.txt and answers_log.txt in Dir. Unknown
// levels fall back to info.
func Init(level string) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	answerPath := filepath.Join(dir, "answers_log.txt")
	answerFile, err = os.OpenFile(answerPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if answerFile != nil {
		answerFile.Close()
		answerFile = nil
	}
	logReady = false
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func APICall(op string, status int, ttfb, total time.Duration, connReused bool) {
	if !logReady {
		return
	}
	connStatus := "new"
	if connReused {
		connStatus = "reused"
	}
	diagLog.Info().
		Str("op", op).
		Int("status", status).
		Str("conn", connStatus).
		Float64("ttfb_ms", float64(ttfb.Microseconds())/1000).
		Float64("total_ms", float64(total.Microseconds())/1000).
		Msg("api_call")
}

func SessionStart(role, sessionID string, total int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("role", role).
		Str("session", sessionID).
		Int("total_questions", total).
		Msg("session_start")
}

func AnswerScored(sessionID string, question int, score float64, satisfactory bool, outcome string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Int("question", question).
		Float64("score", score).
		Bool("satisfactory", satisfactory).
		Str("outcome", outcome).
		Msg("answer_scored")
}

func SummaryShown(sessionID string, finalScore float64, answered int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Float64("final_score", finalScore).
		Int("answered", answered).
		Msg("summary_shown")
}

func SessionEnd(sessionID, reason string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Str("reason", reason).
		Msg("session_end")
}

func SpeechError(reason, code string) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("reason", reason).
		Str("code", code).
		Msg("speech_error")
}

func StaleResponse(op string) {
	if !logReady {
		return
	}
	diagLog.Debug().Str("op", op).Msg("stale_response")
}

// Answer appends a submitted answer to answers_log.txt.
func Answer(sessionID string, question int, text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\tq%d\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, sessionID, question, text)
	answerFile.WriteString(line)
}
