package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

type recorded struct {
	path      string
	body      map[string]any
	requestID string
}

func newBackend(t *testing.T, status int, reply string) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(raw, &body)
		calls = append(calls, recorded{path: r.URL.Path, body: body, requestID: r.Header.Get("X-Request-ID")})
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL+"/", srv.Client()), &calls
}

func TestStartInterview(t *testing.T) {
	c, calls := newBackend(t, 200, `{"session_id":"s1","total_questions":5,"first_question":"Explain REST","role":"backend-engineer"}`)

	resp, err := c.StartInterview(context.Background(), "backend-engineer")
	if err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "s1" || resp.TotalQuestions != 5 || resp.FirstQuestion != "Explain REST" {
		t.Errorf("unexpected response %+v", resp)
	}

	if len(*calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(*calls))
	}
	got := (*calls)[0]
	if got.path != "/api/start-interview" {
		t.Errorf("path = %q", got.path)
	}
	if got.body["role"] != "backend-engineer" {
		t.Errorf("body = %v", got.body)
	}
	if len(got.requestID) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", got.requestID)
	}
}

func TestSubmitAnswer(t *testing.T) {
	c, calls := newBackend(t, 200, `{
		"feedback":"Too short","score":3,"is_satisfactory":false,
		"specific_issues":["no detail"],"improvement_suggestions":["give an example"],
		"interview_complete":false,"repeat_question":true,"retry_message":"Please elaborate",
		"question_number":2,"total_questions":5
	}`)

	resp, err := c.SubmitAnswer(context.Background(), "s1", "I don't know")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.RepeatQuestion || resp.RetryMessage != "Please elaborate" || resp.Score != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.SpecificIssues) != 1 || len(resp.ImprovementSuggestions) != 1 {
		t.Errorf("lists not decoded: %+v", resp)
	}

	got := (*calls)[0]
	if got.path != "/api/submit-answer" || got.body["session_id"] != "s1" || got.body["answer"] != "I don't know" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestGetSummary(t *testing.T) {
	c, calls := newBackend(t, 200, `{
		"role":"data_scientist","final_score":8.5,"total_questions":2,
		"overall_feedback":"Outstanding",
		"detailed_results":[{"question":"Q1","answer":"A1","score":8,"feedback":"ok"},{"question":"Q2","answer":"A2","score":9,"feedback":"great"}],
		"started_at":"2026-01-01T10:00:00"
	}`)

	sum, err := c.GetSummary(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if sum.FinalScore != 8.5 || len(sum.DetailedResults) != 2 || sum.DetailedResults[1].Score != 9 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if (*calls)[0].path != "/api/get-summary" {
		t.Errorf("path = %q", (*calls)[0].path)
	}
}

func TestCancelInterviewIgnoresBody(t *testing.T) {
	c, calls := newBackend(t, 200, `not json at all`)

	if err := c.CancelInterview(context.Background(), "s1"); err != nil {
		t.Fatalf("CancelInterview() = %v", err)
	}
	if (*calls)[0].path != "/api/cancel-interview" || (*calls)[0].body["session_id"] != "s1" {
		t.Errorf("unexpected request %+v", (*calls)[0])
	}
}

func TestNon2xxIsProtocolError(t *testing.T) {
	c, _ := newBackend(t, 400, `{"error":"Invalid session"}`)

	_, err := c.SubmitAnswer(context.Background(), "nope", "answer")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("got %T, want *ProtocolError", err)
	}
	if pe.StatusCode != 400 || pe.Message != "Invalid session" {
		t.Errorf("unexpected error fields %+v", pe)
	}
	if !errors.Is(err, ErrRequest) {
		t.Error("ProtocolError should match ErrRequest")
	}
	if !strings.Contains(err.Error(), "Invalid session") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestUndecodableBodyIsProtocolError(t *testing.T) {
	c, _ := newBackend(t, 200, `<html>oops</html>`)

	_, err := c.StartInterview(context.Background(), "software_engineer")
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("got %T (%v), want *ProtocolError", err, err)
	}
	if pe.Body != "<html>oops</html>" {
		t.Errorf("Body = %q", pe.Body)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 0)
	_, err := c.StartInterview(context.Background(), "software_engineer")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("got %T (%v), want *NetworkError", err, err)
	}
	if !errors.Is(err, ErrRequest) {
		t.Error("NetworkError should match ErrRequest")
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := snippet([]byte(long))
	if len(got) != maxBodySnippet+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("snippet length = %d", len(got))
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewWithHTTPClient(srv.URL, srv.Client())
	if _, err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on a 404 server = %v, want reachable", err)
	}
	srv.Close()

	var ne *NetworkError
	if _, err := c.Ping(context.Background()); !errors.As(err, &ne) {
		t.Errorf("Ping() after close = %v, want *NetworkError", err)
	}
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	// 199 ASCII bytes put a two-byte rune across the cut.
	body := strings.Repeat("x", maxBodySnippet-1) + strings.Repeat("é", 10)
	got := snippet([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got[len(got)-6:])
	}
	if want := strings.Repeat("x", maxBodySnippet-1) + "..."; got != want {
		t.Errorf("snippet = %q, want %q", got, want)
	}
}
