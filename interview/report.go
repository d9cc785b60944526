package interview

import (
	"fmt"
	"strings"

	"interviewer/api"
)

// Report renders a summary as plain text for the clipboard and headless mode.
func Report(s *api.Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Interview Summary\n")
	if s.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n", s.Role)
	}
	fmt.Fprintf(&b, "Final score: %s/10\n", FormatScore(s.FinalScore))
	if s.OverallFeedback != "" {
		fmt.Fprintf(&b, "\n%s\n", s.OverallFeedback)
	}
	for i, r := range s.DetailedResults {
		fmt.Fprintf(&b, "\nQuestion %d (%s/10)\n", i+1, FormatScore(r.Score))
		fmt.Fprintf(&b, "  %s\n", r.Question)
		fmt.Fprintf(&b, "  Your answer: %s\n", r.Answer)
		if r.Feedback != "" {
			fmt.Fprintf(&b, "  Feedback: %s\n", r.Feedback)
		}
	}
	return b.String()
}
