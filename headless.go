package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"interviewer/api"
	"interviewer/clipboard"
	"interviewer/interview"
	"interviewer/log"
)

const waitTimeout = 30 * time.Second

// headlessView prints one line per view change so a script can follow the
// session on stdout.
type headlessView struct {
	mu    sync.Mutex
	out   io.Writer
	reply func(bool)
}

func newHeadlessView(out io.Writer) *headlessView {
	return &headlessView{out: out}
}

func (v *headlessView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format+"\n", args...)
}

func (v *headlessView) ShowRoleSelection() { v.printf("ROLES") }
func (v *headlessView) ShowDraft(text string) {
	v.printf("DRAFT %s", text)
}
func (v *headlessView) ShowSubmitting(on bool) { v.printf("SUBMITTING %t", on) }
func (v *headlessView) ShowRetry(message string) {
	v.printf("RETRY %s", message)
}
func (v *headlessView) ShowError(msg string) { v.printf("ERROR %s", msg) }
func (v *headlessView) HideError()           { v.printf("ERROR_CLEARED") }

func (v *headlessView) ShowQuestion(q interview.Question) {
	v.printf("QUESTION %d/%d %s", q.Number, q.Total, q.Text)
}

func (v *headlessView) ShowListening(on bool, status string) {
	if on {
		v.printf("LISTENING %s", status)
		return
	}
	v.printf("LISTENING_OFF")
}

func (v *headlessView) ShowFeedback(f interview.Feedback) {
	v.printf("FEEDBACK %s score=%s %s", f.Verdict(), interview.FormatScore(f.Score), f.Text)
}

func (v *headlessView) ShowSummary(s *api.Summary) {
	v.printf("SUMMARY score=%s answers=%d", interview.FormatScore(s.FinalScore), len(s.DetailedResults))
}

func (v *headlessView) Confirm(prompt string, reply func(bool)) {
	v.mu.Lock()
	v.reply = reply
	v.mu.Unlock()
	v.printf("CONFIRM %s", prompt)
}

// answer resolves a pending confirmation. It reports false when none is
// open.
func (v *headlessView) answer(ok bool) bool {
	v.mu.Lock()
	reply := v.reply
	v.reply = nil
	v.mu.Unlock()
	if reply == nil {
		return false
	}
	reply(ok)
	return true
}

// runHeadless executes one command per input line until QUIT or EOF.
//
//	ROLE <id>       highlight a role
//	START <id>      start an interview
//	DRAFT <text>    replace the answer draft
//	ANSWER <text>   submit an answer
//	LISTEN          toggle speech input
//	SPEAK           repeat the current question
//	EXIT            ask to leave the interview
//	YES | NO        answer a confirmation
//	SUMMARY         retry loading the summary
//	RESTART         back to role selection
//	DISMISS         hide the error banner
//	COPY            copy the summary report to the clipboard
//	WAIT <phase>    block until the controller reaches phase
//	SLEEP <ms>      pause
//	STATE           print the current phase
//	QUIT            end the session
func runHeadless(ctx context.Context, ctrl controls, view *headlessView, in io.Reader) int {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToUpper(cmd) {
		case "ROLE":
			ctrl.SelectRole(arg)
		case "START":
			ctrl.StartInterview(arg)
		case "DRAFT":
			ctrl.UpdateDraft(arg)
		case "ANSWER":
			ctrl.SubmitAnswer(arg)
		case "LISTEN":
			ctrl.ToggleListening()
		case "SPEAK":
			ctrl.SpeakQuestion()
		case "EXIT":
			ctrl.ExitInterview()
		case "YES", "NO":
			if !view.answer(strings.EqualFold(cmd, "YES")) {
				view.printf("ERROR nothing to confirm")
			}
		case "SUMMARY":
			ctrl.LoadSummary()
		case "RESTART":
			ctrl.Restart()
		case "DISMISS":
			ctrl.DismissError()
		case "COPY":
			s := ctrl.State().Summary
			if s == nil {
				view.printf("ERROR no summary to copy")
				continue
			}
			if err := clipboard.Copy(interview.Report(s)); err != nil {
				view.printf("ERROR %v", err)
				continue
			}
			view.printf("COPIED")
		case "WAIT":
			if err := waitPhase(ctx, ctrl, arg, waitTimeout); err != nil {
				view.printf("ERROR %v", err)
				return 1
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				select {
				case <-ctx.Done():
					return 0
				case <-time.After(time.Duration(ms) * time.Millisecond):
				}
			}
		case "STATE":
			view.printf("STATE %s", ctrl.State().Phase)
		case "QUIT":
			if s := ctrl.State().Session; s != nil {
				log.SessionEnd(s.ID, "quit")
			}
			return 0
		default:
			view.printf("ERROR unknown command %q", cmd)
		}
	}
	return 0
}

// waitPhase polls the published state until its phase name matches.
func waitPhase(ctx context.Context, ctrl controls, phase string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		if ctrl.State().Phase.String() == phase {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for phase %s (at %s)", phase, ctrl.State().Phase)
		case <-tick.C:
		}
	}
}
