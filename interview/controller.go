package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"interviewer/api"
	"interviewer/log"
	"interviewer/speech"
)

const (
	listeningStatus = "Listening... Speak now!"
	exitPrompt      = "Are you sure you want to exit the interview? Your progress will be lost."
	exitMessage     = "Interview ended. Thank you for practicing with us!"

	DefaultRetryMessage = "Let me ask the same question again. Please provide a more detailed answer."
)

// Backend is the scoring service. *api.Client implements it.
type Backend interface {
	StartInterview(ctx context.Context, role string) (*api.StartResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) (*api.SubmitResponse, error)
	GetSummary(ctx context.Context, sessionID string) (*api.Summary, error)
	CancelInterview(ctx context.Context, sessionID string) error
}

type Pacing struct {
	NarrationDelay time.Duration
	FeedbackDelay  time.Duration
	Rate           float64
}

func DefaultPacing() Pacing {
	return Pacing{
		NarrationDelay: time.Second,
		FeedbackDelay:  3 * time.Second,
		Rate:           speech.DefaultRate,
	}
}

type Config struct {
	Backend Backend
	// Recognizer is nil when speech input is unavailable.
	Recognizer     speech.Recognizer
	Synthesizer    speech.Synthesizer
	View           View
	Confirmer      Confirmer
	Executor       Executor
	Pacing         Pacing
	RequestTimeout time.Duration
}

// Controller owns the interview session and drives the question loop. All
// exported methods are safe to call from any goroutine; the work itself runs
// on the Executor.
type Controller struct {
	backend Backend
	rec     speech.Recognizer
	synth   speech.Synthesizer
	view    View
	confirm Confirmer
	exec    Executor
	pacing  Pacing
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the executor thread.
	phase          Phase
	role           string
	session        *Session
	question       string
	draft          string
	listening      bool
	submitting     bool
	confirming     bool
	summaryLoading bool
	summary        *api.Summary
	errMsg         string
	epoch          uint64
	timerSeq       uint64
	timers         map[uint64]func() bool
	// held collects continuations that arrived while the exit dialog was
	// open. They run if the user stays and are dropped if the user leaves.
	held []func()

	state atomic.Pointer[State]
}

func New(cfg Config) *Controller {
	if cfg.Synthesizer == nil {
		cfg.Synthesizer = speech.Mute{}
	}
	if cfg.Pacing.Rate == 0 {
		cfg.Pacing.Rate = speech.DefaultRate
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend: cfg.Backend,
		rec:     cfg.Recognizer,
		synth:   cfg.Synthesizer,
		view:    cfg.View,
		confirm: cfg.Confirmer,
		exec:    cfg.Executor,
		pacing:  cfg.Pacing,
		timeout: cfg.RequestTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	c.publish()
	return c
}

// State returns the latest published snapshot.
func (c *Controller) State() State {
	return *c.state.Load()
}

// Close aborts in-flight backend requests.
func (c *Controller) Close() {
	c.cancel()
}

func (c *Controller) SelectRole(role string) {
	c.do(func() { c.role = role })
}

func (c *Controller) StartInterview(role string) {
	c.do(func() { c.startInterview(role) })
}

func (c *Controller) UpdateDraft(text string) {
	c.do(func() {
		if c.session != nil {
			c.draft = text
		}
	})
}

func (c *Controller) SubmitAnswer(text string) {
	c.do(func() { c.submitAnswer(text) })
}

func (c *Controller) ExitInterview() {
	c.do(c.exitInterview)
}

func (c *Controller) Restart() {
	c.do(c.restart)
}

func (c *Controller) ToggleListening() {
	c.do(c.toggleListening)
}

func (c *Controller) SpeakQuestion() {
	c.do(func() {
		if c.session != nil && c.question != "" {
			c.speak(c.question)
		}
	})
}

// LoadSummary retries a failed summary fetch.
func (c *Controller) LoadSummary() {
	c.do(c.loadSummary)
}

func (c *Controller) DismissError() {
	c.do(c.hideError)
}

func (c *Controller) HandleSpeechEvent(ev speech.Event) {
	c.do(func() { c.handleSpeechEvent(ev) })
}

// PumpSpeechEvents forwards recognizer events to the controller until ctx is
// done or the recognizer closes its channel.
func (c *Controller) PumpSpeechEvents(ctx context.Context) {
	if c.rec == nil {
		return
	}
	events := c.rec.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleSpeechEvent(ev)
		}
	}
}

func (c *Controller) do(fn func()) {
	c.exec.Post(func() {
		fn()
		c.publish()
	})
}

// later runs fn after d unless the session it was scheduled for is gone.
func (c *Controller) later(op string, d time.Duration, fn func()) {
	epoch := c.epoch
	c.timerSeq++
	id := c.timerSeq
	stop := c.exec.AfterFunc(d, func() {
		delete(c.timers, id)
		c.whenFree(func() {
			if !c.current(epoch) {
				log.StaleResponse(op)
				return
			}
			fn()
		})
		c.publish()
	})
	if c.timers == nil {
		c.timers = make(map[uint64]func() bool)
	}
	c.timers[id] = stop
}

// whenFree runs fn now, or holds it until the exit dialog is answered.
func (c *Controller) whenFree(fn func()) {
	if c.confirming {
		c.held = append(c.held, fn)
		return
	}
	fn()
}

// background runs a backend call off the controller thread and posts done
// back with the epoch it was issued under.
func (c *Controller) background(call func(ctx context.Context), done func()) {
	c.exec.Go(func() {
		ctx, cancel := c.requestContext()
		defer cancel()
		call(ctx)
		c.do(func() { c.whenFree(done) })
	})
}

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(c.ctx, c.timeout)
	}
	return context.WithCancel(c.ctx)
}

func (c *Controller) current(epoch uint64) bool {
	return epoch == c.epoch && c.session != nil
}

func (c *Controller) startInterview(role string) {
	role = strings.TrimSpace(role)
	if role == "" {
		c.showError(errNoRole.Error())
		return
	}
	if c.session != nil || c.phase == PhaseStarting {
		return
	}

	c.role = role
	c.phase = PhaseStarting
	epoch := c.epoch

	var resp *api.StartResponse
	var err error
	c.background(func(ctx context.Context) {
		resp, err = c.backend.StartInterview(ctx, role)
	}, func() {
		if epoch != c.epoch || c.phase != PhaseStarting {
			log.StaleResponse("start-interview")
			return
		}
		c.onStarted(role, resp, err)
	})
}

func (c *Controller) onStarted(role string, resp *api.StartResponse, err error) {
	if err == nil {
		err = checkStart(resp)
	}
	if err != nil {
		c.phase = PhaseRoleSelection
		log.Errorf("start interview (%s): %v", role, err)
		c.showError("Failed to start interview: " + err.Error())
		return
	}

	c.session = &Session{
		ID:              resp.SessionID,
		Role:            role,
		CurrentQuestion: 1,
		TotalQuestions:  resp.TotalQuestions,
	}
	c.phase = PhaseQuestion
	c.question = resp.FirstQuestion
	c.draft = ""
	c.view.ShowQuestion(c.currentQuestion())
	c.hideError()
	log.SessionStart(role, resp.SessionID, resp.TotalQuestions)

	c.later("narrate-question", c.pacing.NarrationDelay, func() {
		c.speak(c.question)
	})
}

func checkStart(resp *api.StartResponse) error {
	var missing string
	switch {
	case resp == nil:
		missing = "body"
	case resp.SessionID == "":
		missing = "session_id"
	case resp.TotalQuestions <= 0:
		missing = "total_questions"
	case resp.FirstQuestion == "":
		missing = "first_question"
	default:
		return nil
	}
	return &api.ProtocolError{Op: "start-interview", Err: fmt.Errorf("response has no valid %s", missing)}
}

func (c *Controller) submitAnswer(text string) {
	if c.session == nil || c.phase != PhaseQuestion {
		return
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		c.showError(errNoAnswer.Error())
		return
	}

	c.draft = text
	c.phase = PhaseSubmitting
	c.submitting = true
	c.view.ShowSubmitting(true)
	c.hideError()
	if c.listening && c.rec != nil {
		c.rec.Stop()
	}

	sess := *c.session
	epoch := c.epoch
	log.Answer(sess.ID, sess.CurrentQuestion, answer)

	var resp *api.SubmitResponse
	var err error
	c.background(func(ctx context.Context) {
		resp, err = c.backend.SubmitAnswer(ctx, sess.ID, answer)
	}, func() {
		if !c.current(epoch) || c.phase != PhaseSubmitting {
			log.StaleResponse("submit-answer")
			return
		}
		c.onSubmitted(resp, err)
	})
}

func (c *Controller) onSubmitted(resp *api.SubmitResponse, err error) {
	c.submitting = false
	c.view.ShowSubmitting(false)

	if err == nil {
		err = c.checkOutcome(resp)
	}
	if err != nil {
		c.phase = PhaseQuestion
		log.Errorf("submit answer (%s q%d): %v", c.session.ID, c.session.CurrentQuestion, err)
		c.showError("Failed to submit answer: " + err.Error())
		return
	}

	c.phase = PhaseFeedback
	c.view.ShowFeedback(Feedback{
		Text:         resp.Feedback,
		Score:        resp.Score,
		Satisfactory: resp.IsSatisfactory,
		Issues:       resp.SpecificIssues,
		Suggestions:  resp.ImprovementSuggestions,
	})
	c.speak(feedbackNarration(resp))

	var outcome string
	switch {
	case resp.InterviewComplete:
		outcome = "complete"
		c.later("show-summary", c.pacing.FeedbackDelay, c.complete)
	case resp.RepeatQuestion:
		outcome = "repeat"
		msg := resp.RetryMessage
		if msg == "" {
			msg = DefaultRetryMessage
		}
		c.later("repeat-question", c.pacing.FeedbackDelay, func() { c.retry(msg) })
	default:
		outcome = "advance"
		number, next := resp.QuestionNumber, resp.NextQuestion
		c.later("next-question", c.pacing.FeedbackDelay, func() { c.advance(number, next) })
	}
	log.AnswerScored(c.session.ID, c.session.CurrentQuestion, resp.Score, resp.IsSatisfactory, outcome)
}

// checkOutcome rejects an advance that has nowhere to go.
func (c *Controller) checkOutcome(resp *api.SubmitResponse) error {
	if resp == nil {
		return &api.ProtocolError{Op: "submit-answer", Err: errors.New("empty response")}
	}
	if resp.InterviewComplete || resp.RepeatQuestion {
		return nil
	}
	if resp.QuestionNumber < 1 || resp.QuestionNumber > c.session.TotalQuestions {
		return &api.ProtocolError{Op: "submit-answer", Err: fmt.Errorf("question_number %d out of range 1..%d", resp.QuestionNumber, c.session.TotalQuestions)}
	}
	if resp.NextQuestion == "" {
		return &api.ProtocolError{Op: "submit-answer", Err: errors.New("response has no next_question")}
	}
	return nil
}

func feedbackNarration(resp *api.SubmitResponse) string {
	lead := "Your answer needs improvement."
	if resp.IsSatisfactory {
		lead = "Good answer!"
	}
	return fmt.Sprintf("%s Score: %s out of 10. %s", lead, FormatScore(resp.Score), resp.Feedback)
}

func (c *Controller) retry(msg string) {
	c.phase = PhaseQuestion
	c.draft = ""
	c.view.ShowDraft("")
	c.view.ShowRetry(msg)
	c.speak(msg + " " + c.question)
}

func (c *Controller) advance(number int, next string) {
	c.session.CurrentQuestion = number
	c.question = next
	c.draft = ""
	c.phase = PhaseQuestion
	c.view.ShowQuestion(c.currentQuestion())
	c.speak(next)
}

func (c *Controller) complete() {
	c.phase = PhaseSummary
	c.loadSummary()
}

func (c *Controller) loadSummary() {
	if c.session == nil || c.phase != PhaseSummary || c.summary != nil || c.summaryLoading {
		return
	}
	c.summaryLoading = true
	id := c.session.ID
	epoch := c.epoch

	var sum *api.Summary
	var err error
	c.background(func(ctx context.Context) {
		sum, err = c.backend.GetSummary(ctx, id)
	}, func() {
		if !c.current(epoch) || c.phase != PhaseSummary {
			log.StaleResponse("get-summary")
			return
		}
		c.summaryLoading = false
		if err == nil && sum == nil {
			err = &api.ProtocolError{Op: "get-summary", Err: errors.New("empty response")}
		}
		if err != nil {
			log.Errorf("get summary (%s): %v", id, err)
			c.showError("Failed to load summary: " + err.Error())
			return
		}
		c.summary = sum
		c.hideError()
		c.view.ShowSummary(sum)
		c.speak(fmt.Sprintf("Interview complete! Your final score is %s out of 10. %s",
			FormatScore(sum.FinalScore), sum.OverallFeedback))
		log.SummaryShown(id, sum.FinalScore, len(sum.DetailedResults))
	})
}

func (c *Controller) exitInterview() {
	if c.session == nil || c.confirming {
		return
	}
	// Summary is left only through Restart.
	if c.phase == PhaseSummary || c.phase == PhaseStarting {
		return
	}
	c.synth.Cancel()
	if c.listening && c.rec != nil {
		c.rec.Stop()
	}

	c.confirming = true
	epoch := c.epoch
	c.confirm.Confirm(exitPrompt, func(ok bool) {
		c.do(func() { c.onExitConfirmed(epoch, ok) })
	})
}

func (c *Controller) onExitConfirmed(epoch uint64, ok bool) {
	if !c.current(epoch) {
		return
	}
	c.confirming = false
	if !ok {
		held := c.held
		c.held = nil
		for _, fn := range held {
			fn()
		}
		return
	}

	id := c.session.ID
	c.exec.Go(func() {
		ctx, cancel := c.requestContext()
		defer cancel()
		if err := c.backend.CancelInterview(ctx, id); err != nil {
			log.Warnf("cancel interview %s: %v", id, err)
		}
	})
	log.SessionEnd(id, "exit")
	c.reset()
	c.speak(exitMessage)
}

func (c *Controller) restart() {
	if c.session != nil {
		log.SessionEnd(c.session.ID, "restart")
	}
	c.reset()
}

// reset returns to role selection and invalidates every pending continuation.
func (c *Controller) reset() {
	c.epoch++
	for _, stop := range c.timers {
		stop()
	}
	c.timers = nil
	c.held = nil

	c.synth.Cancel()
	if c.rec != nil {
		c.rec.Stop()
	}

	c.phase = PhaseRoleSelection
	c.session = nil
	c.question = ""
	c.draft = ""
	c.listening = false
	c.submitting = false
	c.confirming = false
	c.summaryLoading = false
	c.summary = nil

	c.hideError()
	c.view.ShowListening(false, "")
	c.view.ShowSubmitting(false)
	c.view.ShowRoleSelection()
}

func (c *Controller) toggleListening() {
	if c.rec == nil {
		c.showError(speech.UnsupportedMessage)
		return
	}
	if c.listening {
		c.rec.Stop()
		return
	}
	if c.session == nil || c.phase != PhaseQuestion {
		return
	}
	if err := c.rec.Start(); err != nil {
		var serr *speech.Error
		switch {
		case errors.Is(err, speech.ErrUnsupported):
			c.showError(speech.UnsupportedMessage)
		case errors.As(err, &serr):
			c.showError(serr.Message())
		default:
			c.showError("Speech recognition error: " + err.Error())
		}
	}
}

func (c *Controller) handleSpeechEvent(ev speech.Event) {
	switch ev.Kind {
	case speech.Started:
		c.listening = true
		c.view.ShowListening(true, listeningStatus)
	case speech.Result:
		if c.session == nil || c.phase != PhaseQuestion {
			return
		}
		c.draft = ev.Transcript
		c.view.ShowDraft(ev.Transcript)
	case speech.Ended:
		c.listening = false
		c.view.ShowListening(false, "")
	case speech.Errored:
		c.listening = false
		c.view.ShowListening(false, "")
		serr := ev.Err
		if serr == nil {
			serr = speech.NewError("unknown", nil)
		}
		log.SpeechError(serr.Reason.String(), serr.Code)
		c.showError(serr.Message())
	}
}

func (c *Controller) currentQuestion() Question {
	return Question{
		Text:   c.question,
		Number: c.session.CurrentQuestion,
		Total:  c.session.TotalQuestions,
	}
}

func (c *Controller) speak(text string) {
	c.synth.Speak(text, c.pacing.Rate)
}

func (c *Controller) showError(msg string) {
	c.errMsg = msg
	c.view.ShowError(msg)
}

func (c *Controller) hideError() {
	c.errMsg = ""
	c.view.HideError()
}

func (c *Controller) publish() {
	s := &State{
		Phase:      c.phase,
		Role:       c.role,
		Question:   c.question,
		Draft:      c.draft,
		Listening:  c.listening,
		Submitting: c.submitting,
		Confirming: c.confirming,
		Error:      c.errMsg,
		Summary:    c.summary,
	}
	if c.session != nil {
		sess := *c.session
		s.Session = &sess
	}
	c.state.Store(s)
}
