package interview

import (
	"strconv"

	"interviewer/api"
)

// View renders controller output. Every method is called from the controller
// thread and must not block.
type View interface {
	ShowRoleSelection()
	ShowQuestion(q Question)
	ShowDraft(text string)
	ShowListening(on bool, status string)
	ShowSubmitting(on bool)
	ShowFeedback(f Feedback)
	ShowRetry(message string)
	ShowSummary(s *api.Summary)
	ShowError(msg string)
	HideError()
}

// Confirmer asks the user a yes/no question. reply may be called from any
// goroutine.
type Confirmer interface {
	Confirm(prompt string, reply func(ok bool))
}

type Question struct {
	Text   string
	Number int
	Total  int
}

// Progress is the fraction of the interview reached, in [0, 1].
func (q Question) Progress() float64 {
	if q.Total <= 0 {
		return 0
	}
	return float64(q.Number) / float64(q.Total)
}

type Feedback struct {
	Text         string
	Score        float64
	Satisfactory bool
	Issues       []string
	Suggestions  []string
}

func (f Feedback) Verdict() string {
	if f.Satisfactory {
		return "Answer Accepted"
	}
	return "Answer Needs Improvement"
}

type Band int

const (
	BandPoor Band = iota
	BandFair
	BandGood
)

// ScoreBand buckets a 0-10 score for colouring.
func ScoreBand(score float64) Band {
	switch {
	case score >= 8:
		return BandGood
	case score >= 6:
		return BandFair
	}
	return BandPoor
}

// FormatScore prints 8 as "8" and 7.5 as "7.5".
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
