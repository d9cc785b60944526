package interview

import (
	"context"
	"sort"
	"time"

	"interviewer/api"
)

// manualExecutor runs posted work only when the test asks it to, against a
// virtual clock.
type manualExecutor struct {
	now     time.Duration
	queue   []func()
	pending []func()
	timers  []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	fn      func()
	done    bool
	stopped bool
}

func (e *manualExecutor) Post(fn func()) {
	e.queue = append(e.queue, fn)
}

func (e *manualExecutor) AfterFunc(d time.Duration, fn func()) func() bool {
	t := &manualTimer{at: e.now + d, fn: fn}
	e.timers = append(e.timers, t)
	return func() bool {
		if t.done || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (e *manualExecutor) Go(fn func()) {
	e.pending = append(e.pending, fn)
}

// Drain runs queued controller work.
func (e *manualExecutor) Drain() {
	for len(e.queue) > 0 {
		fn := e.queue[0]
		e.queue = e.queue[1:]
		fn()
	}
}

// RunPending completes background calls issued so far.
func (e *manualExecutor) RunPending() {
	work := e.pending
	e.pending = nil
	for _, fn := range work {
		fn()
	}
	e.Drain()
}

// Settle drains until no queued or background work remains.
func (e *manualExecutor) Settle() {
	e.Drain()
	for len(e.pending) > 0 {
		e.RunPending()
	}
}

// Advance moves the clock and fires due timers in order.
func (e *manualExecutor) Advance(d time.Duration) {
	e.now += d
	for {
		var due []*manualTimer
		for _, t := range e.timers {
			if !t.done && !t.stopped && t.at <= e.now {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
		for _, t := range due {
			t.done = true
			e.Post(t.fn)
		}
		e.Settle()
	}
}

type fakeBackend struct {
	startResp  *api.StartResponse
	startErr   error
	submits    []*api.SubmitResponse
	submitErr  error
	summary    *api.Summary
	summaryErr error
	cancelErr  error

	startCalls   []string
	submitCalls  []string
	summaryCalls int
	cancelCalls  []string
}

func (b *fakeBackend) StartInterview(_ context.Context, role string) (*api.StartResponse, error) {
	b.startCalls = append(b.startCalls, role)
	if b.startErr != nil {
		return nil, b.startErr
	}
	resp := *b.startResp
	return &resp, nil
}

func (b *fakeBackend) SubmitAnswer(_ context.Context, _, answer string) (*api.SubmitResponse, error) {
	b.submitCalls = append(b.submitCalls, answer)
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	if len(b.submits) == 0 {
		return nil, &api.ProtocolError{Op: "submit-answer", StatusCode: 500}
	}
	resp := b.submits[0]
	b.submits = b.submits[1:]
	return resp, nil
}

func (b *fakeBackend) GetSummary(context.Context, string) (*api.Summary, error) {
	b.summaryCalls++
	if b.summaryErr != nil {
		return nil, b.summaryErr
	}
	return b.summary, nil
}

func (b *fakeBackend) CancelInterview(_ context.Context, id string) error {
	b.cancelCalls = append(b.cancelCalls, id)
	return b.cancelErr
}

type fakeView struct {
	roleSelections int
	questions      []Question
	draft          string
	listening      bool
	status         string
	submitting     bool
	feedback       []Feedback
	retries        []string
	summaries      []*api.Summary
	errMsg         string
	errVisible     bool
}

func (v *fakeView) ShowRoleSelection() { v.roleSelections++ }
func (v *fakeView) ShowQuestion(q Question) { v.questions = append(v.questions, q); v.draft = "" }
func (v *fakeView) ShowDraft(text string) { v.draft = text }
func (v *fakeView) ShowSubmitting(on bool) { v.submitting = on }
func (v *fakeView) ShowFeedback(f Feedback) { v.feedback = append(v.feedback, f) }
func (v *fakeView) ShowRetry(message string) { v.retries = append(v.retries, message) }
func (v *fakeView) ShowSummary(s *api.Summary) { v.summaries = append(v.summaries, s) }
func (v *fakeView) ShowError(msg string) { v.errMsg, v.errVisible = msg, true }
func (v *fakeView) HideError() { v.errVisible = false }

func (v *fakeView) ShowListening(on bool, status string) {
	v.listening, v.status = on, status
}

func (v *fakeView) lastQuestion() Question {
	if len(v.questions) == 0 {
		return Question{}
	}
	return v.questions[len(v.questions)-1]
}

type fakeConfirmer struct {
	prompts []string
	reply   func(bool)
}

func (f *fakeConfirmer) Confirm(prompt string, reply func(bool)) {
	f.prompts = append(f.prompts, prompt)
	f.reply = reply
}
