package api

type startRequest struct {
	Role string `json:"role"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type submitRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type StartResponse struct {
	SessionID      string `json:"session_id"`
	TotalQuestions int    `json:"total_questions"`
	FirstQuestion  string `json:"first_question"`
	Role           string `json:"role,omitempty"`
}

// SubmitResponse is the scoring verdict for one answer. Which optional
// fields are present depends on whether the interview completes, repeats
// the question or advances.
type SubmitResponse struct {
	Feedback               string   `json:"feedback"`
	Score                  float64  `json:"score"`
	IsSatisfactory         bool     `json:"is_satisfactory"`
	SpecificIssues         []string `json:"specific_issues"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
	QuestionCompleted      bool     `json:"question_completed"`

	InterviewComplete bool    `json:"interview_complete"`
	FinalScore        float64 `json:"final_score,omitempty"`

	RepeatQuestion bool   `json:"repeat_question"`
	RetryMessage   string `json:"retry_message,omitempty"`

	QuestionNumber int    `json:"question_number,omitempty"`
	NextQuestion   string `json:"next_question,omitempty"`
	TotalQuestions int    `json:"total_questions,omitempty"`
}

type Summary struct {
	Role            string           `json:"role,omitempty"`
	FinalScore      float64          `json:"final_score"`
	TotalQuestions  int              `json:"total_questions,omitempty"`
	OverallFeedback string           `json:"overall_feedback"`
	DetailedResults []DetailedResult `json:"detailed_results"`
	StartedAt       string           `json:"started_at,omitempty"`
	CompletedAt     string           `json:"duration,omitempty"`
}

type DetailedResult struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}
