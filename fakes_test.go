package main

import "interviewer/interview"

type fakeControls struct {
	state interview.State
	calls []string
}

func (f *fakeControls) record(call string)         { f.calls = append(f.calls, call) }
func (f *fakeControls) StartInterview(role string) { f.record("start " + role) }
func (f *fakeControls) SelectRole(role string)     { f.record("select " + role) }
func (f *fakeControls) UpdateDraft(text string)    { f.record("draft " + text) }
func (f *fakeControls) SubmitAnswer(text string)   { f.record("submit " + text) }
func (f *fakeControls) ExitInterview()             { f.record("exit") }
func (f *fakeControls) Restart()                   { f.record("restart") }
func (f *fakeControls) ToggleListening()           { f.record("toggle") }
func (f *fakeControls) SpeakQuestion()             { f.record("speak") }
func (f *fakeControls) LoadSummary()               { f.record("summary") }
func (f *fakeControls) DismissError()              { f.record("dismiss") }
func (f *fakeControls) State() interview.State     { return f.state }

func (f *fakeControls) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}
