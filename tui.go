package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"interviewer/api"
	"interviewer/clipboard"
	"interviewer/config"
	"interviewer/interview"
)

// Messages delivered from the controller thread.
type roleSelectionMsg struct{}
type questionMsg struct{ q interview.Question }
type draftMsg struct{ text string }
type listeningMsg struct {
	on     bool
	status string
}
type submittingMsg struct{ on bool }
type feedbackMsg struct{ f interview.Feedback }
type retryMsg struct{ text string }
type summaryMsg struct{ s *api.Summary }
type errorMsg struct{ text string }
type hideErrorMsg struct{}
type confirmMsg struct {
	prompt string
	reply  func(bool)
}
type noticeMsg struct{ text string }

// controls is the part of the controller the TUI drives.
type controls interface {
	StartInterview(role string)
	SelectRole(role string)
	UpdateDraft(text string)
	SubmitAnswer(text string)
	ExitInterview()
	Restart()
	ToggleListening()
	SpeakQuestion()
	LoadSummary()
	DismissError()
	State() interview.State
}

// tuiView implements interview.View and interview.Confirmer by queueing
// messages for the program. Send can block while the program is busy, so a
// dedicated loop preserves order without stalling the controller.
type tuiView struct {
	queue *interview.Loop
	send  func(tea.Msg)
}

func newTUIView(ctx context.Context, send func(tea.Msg)) *tuiView {
	v := &tuiView{queue: interview.NewLoop(), send: send}
	go v.queue.Run(ctx)
	return v
}

func (v *tuiView) post(msg tea.Msg) {
	v.queue.Post(func() { v.send(msg) })
}

func (v *tuiView) ShowRoleSelection()                { v.post(roleSelectionMsg{}) }
func (v *tuiView) ShowQuestion(q interview.Question) { v.post(questionMsg{q}) }
func (v *tuiView) ShowDraft(text string)             { v.post(draftMsg{text}) }
func (v *tuiView) ShowSubmitting(on bool)            { v.post(submittingMsg{on}) }
func (v *tuiView) ShowFeedback(f interview.Feedback) { v.post(feedbackMsg{f}) }
func (v *tuiView) ShowRetry(message string)          { v.post(retryMsg{message}) }
func (v *tuiView) ShowSummary(s *api.Summary)        { v.post(summaryMsg{s}) }
func (v *tuiView) ShowError(msg string)              { v.post(errorMsg{msg}) }
func (v *tuiView) HideError()                        { v.post(hideErrorMsg{}) }

func (v *tuiView) ShowListening(on bool, status string) {
	v.post(listeningMsg{on: on, status: status})
}

func (v *tuiView) Confirm(prompt string, reply func(bool)) {
	v.post(confirmMsg{prompt: prompt, reply: reply})
}

type screen int

const (
	screenRoles screen = iota
	screenInterview
	screenSummary
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	listenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("124")).Padding(0, 1)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	retryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	confirmStyle  = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("214")).Padding(0, 1)

	bandStyles = map[interview.Band]lipgloss.Style{
		interview.BandGood: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		interview.BandFair: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		interview.BandPoor: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func scoreText(score float64) string {
	return bandStyles[interview.ScoreBand(score)].Render(interview.FormatScore(score) + "/10")
}

type tuiModel struct {
	ctrl  controls
	roles []config.Role
	copy  func(string) error

	screen  screen
	cursor  int
	width   int
	input   textinput.Model
	spinner spinner.Model

	question   interview.Question
	listening  bool
	status     string
	submitting bool
	feedback   *interview.Feedback
	retry      string
	summary    *api.Summary
	err        string
	notice     string
	confirm    *confirmMsg
	phase      interview.Phase
}

func newTUIModel(ctrl controls, roles []config.Role) tuiModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type your answer, or press ctrl+r and speak"
	input.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	return tuiModel{
		ctrl:    ctrl,
		roles:   roles,
		copy:    clipboard.Copy,
		input:   input,
		spinner: sp,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-6, 20)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.phase = m.ctrl.State().Phase
		return m, cmd

	case roleSelectionMsg:
		m.screen = screenRoles
		m.question = interview.Question{}
		m.feedback = nil
		m.retry = ""
		m.summary = nil
		m.confirm = nil
		m.input.Reset()
		m.input.Blur()

	case questionMsg:
		m.screen = screenInterview
		m.question = msg.q
		m.feedback = nil
		m.retry = ""
		m.input.Reset()
		return m, m.input.Focus()

	case draftMsg:
		m.input.SetValue(msg.text)
		m.input.CursorEnd()

	case listeningMsg:
		m.listening = msg.on
		m.status = msg.status

	case submittingMsg:
		m.submitting = msg.on

	case feedbackMsg:
		f := msg.f
		m.feedback = &f
		m.retry = ""

	case retryMsg:
		m.feedback = nil
		m.retry = msg.text
		m.input.Reset()

	case summaryMsg:
		m.screen = screenSummary
		m.summary = msg.s
		m.input.Blur()

	case errorMsg:
		m.err = msg.text

	case hideErrorMsg:
		m.err = ""

	case confirmMsg:
		c := msg
		m.confirm = &c

	case noticeMsg:
		m.notice = msg.text

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm != nil {
		switch key {
		case "y", "Y", "enter":
			m.confirm.reply(true)
			m.confirm = nil
		case "n", "N", "esc":
			m.confirm.reply(false)
			m.confirm = nil
		}
		return m, nil
	}

	if key == "ctrl+x" && m.err != "" {
		m.ctrl.DismissError()
		return m, nil
	}
	m.notice = ""

	switch m.screen {
	case screenRoles:
		return m.handleRoleKey(key)
	case screenSummary:
		return m.handleSummaryKey(key)
	}
	return m.handleInterviewKey(msg)
}

func (m tuiModel) handleRoleKey(key string) (tea.Model, tea.Cmd) {
	if len(m.roles) == 0 {
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.ctrl.SelectRole(m.roles[m.cursor].ID)
	case "down", "j":
		if m.cursor < len(m.roles)-1 {
			m.cursor++
		}
		m.ctrl.SelectRole(m.roles[m.cursor].ID)
	case "enter":
		m.ctrl.StartInterview(m.roles[m.cursor].ID)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m tuiModel) handleSummaryKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "r":
		m.ctrl.Restart()
	case "l":
		m.ctrl.LoadSummary()
	case "c":
		if m.summary == nil {
			return m, nil
		}
		report := interview.Report(m.summary)
		copyFn := m.copy
		return m, func() tea.Msg {
			if err := copyFn(report); err != nil {
				return noticeMsg{"Copy failed: " + err.Error()}
			}
			return noticeMsg{"Summary copied to clipboard"}
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m tuiModel) handleInterviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// A completed interview whose summary failed to load is left
		// through restart, never through the exit dialog.
		if m.ctrl.State().Phase == interview.PhaseSummary {
			m.ctrl.Restart()
			return m, nil
		}
		m.ctrl.ExitInterview()
		return m, nil
	case "enter":
		m.ctrl.SubmitAnswer(m.input.Value())
		return m, nil
	case "ctrl+r":
		m.ctrl.ToggleListening()
		return m, nil
	case "ctrl+p":
		m.ctrl.SpeakQuestion()
		return m, nil
	case "ctrl+l":
		m.ctrl.LoadSummary()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.ctrl.UpdateDraft(v)
	}
	return m, cmd
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Interview Practice") + "\n\n")

	switch m.screen {
	case screenRoles:
		b.WriteString(m.viewRoles())
	case screenInterview:
		b.WriteString(m.viewInterview())
	case screenSummary:
		b.WriteString(m.viewSummary())
	}

	if m.confirm != nil {
		b.WriteString("\n" + confirmStyle.Render(m.confirm.prompt+"\n\n"+keyStyle.Render("y")+helpStyle.Render(" yes   ")+keyStyle.Render("n")+helpStyle.Render(" no")) + "\n")
	}
	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.err) + helpStyle.Render("  ctrl+x dismiss") + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}
	return b.String()
}

func (m tuiModel) viewRoles() string {
	var b strings.Builder
	b.WriteString("Choose the role you want to practice for:\n\n")
	for i, r := range m.roles {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+r.Label) + "\n")
		} else {
			b.WriteString("  " + r.Label + "\n")
		}
	}
	b.WriteString("\n")
	if m.phase == interview.PhaseStarting {
		b.WriteString(m.spinner.View() + " Starting interview...\n")
	}
	b.WriteString(help("↑/↓", "choose", "enter", "start", "q", "quit"))
	return b.String()
}

func (m tuiModel) viewInterview() string {
	var b strings.Builder
	q := m.question
	fmt.Fprintf(&b, "%s  %s\n\n", dimStyle.Render(fmt.Sprintf("Question %d of %d", q.Number, q.Total)), progressBar(q.Progress(), 30))
	b.WriteString(questionStyle.Width(max(m.width-2, 40)).Render(q.Text) + "\n\n")

	if m.retry != "" {
		b.WriteString(retryStyle.Render(m.retry) + "\n\n")
	}

	b.WriteString(m.input.View() + "\n")
	switch {
	case m.submitting:
		b.WriteString(m.spinner.View() + " Evaluating your answer...\n")
	case m.listening:
		b.WriteString(listenStyle.Render("● "+m.status) + "\n")
	default:
		b.WriteString("\n")
	}

	if f := m.feedback; f != nil {
		b.WriteString("\n" + m.viewFeedback(*f))
		if m.phase == interview.PhaseSummary {
			b.WriteString(m.spinner.View() + " Loading summary...\n")
		}
	}

	b.WriteString("\n" + help("enter", "submit", "ctrl+r", "speak", "ctrl+p", "repeat question", "esc", "exit"))
	return b.String()
}

func (m tuiModel) viewFeedback(f interview.Feedback) string {
	var b strings.Builder
	verdict := bandStyles[interview.BandPoor].Render(f.Verdict())
	if f.Satisfactory {
		verdict = bandStyles[interview.BandGood].Render(f.Verdict())
	}
	fmt.Fprintf(&b, "%s  Score: %s\n\n", verdict, scoreText(f.Score))
	b.WriteString(f.Text + "\n")
	if len(f.Issues) > 0 {
		b.WriteString("\nIssues:\n")
		for _, s := range f.Issues {
			b.WriteString("  • " + s + "\n")
		}
	}
	if len(f.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, s := range f.Suggestions {
			b.WriteString("  • " + s + "\n")
		}
	}
	return panelStyle.Width(max(m.width-4, 40)).Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m tuiModel) viewSummary() string {
	s := m.summary
	var b strings.Builder
	fmt.Fprintf(&b, "Interview complete!  Final score: %s\n", scoreText(s.FinalScore))
	if s.Role != "" {
		b.WriteString(dimStyle.Render("Role: "+s.Role) + "\n")
	}
	if s.OverallFeedback != "" {
		b.WriteString("\n" + s.OverallFeedback + "\n")
	}
	for i, r := range s.DetailedResults {
		var card strings.Builder
		fmt.Fprintf(&card, "Question %d  %s\n", i+1, scoreText(r.Score))
		card.WriteString(questionStyle.Render(r.Question) + "\n")
		card.WriteString(dimStyle.Render("Your answer: ") + r.Answer)
		if r.Feedback != "" {
			card.WriteString("\n" + dimStyle.Render("Feedback: ") + r.Feedback)
		}
		b.WriteString("\n" + panelStyle.Width(max(m.width-4, 40)).Render(card.String()) + "\n")
	}
	b.WriteString("\n" + help("r", "new interview", "c", "copy report", "q", "quit"))
	return b.String()
}

func progressBar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)
	return lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// help renders key/description pairs.
func help(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, keyStyle.Render(pairs[i])+helpStyle.Render(" "+pairs[i+1]))
	}
	return strings.Join(parts, helpStyle.Render(" • ")) + "\n"
}
