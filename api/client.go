package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"interviewer/log"
	"interviewer/nettrace"
)

const (
	pathStart   = "/api/start-interview"
	pathSubmit  = "/api/submit-answer"
	pathSummary = "/api/get-summary"
	pathCancel  = "/api/cancel-interview"

	maxBodySnippet = 200
)

// Client talks to the interview backend. Every call is a single POST with no
// retries.
type Client struct {
	baseURL string
	http    *nettrace.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    nettrace.NewClient(timeout),
	}
}

func NewWithHTTPClient(baseURL string, c *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    nettrace.WithHTTPClient(c),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Warm pre-opens a connection to the backend.
func (c *Client) Warm() {
	c.http.Warm(c.baseURL + "/")
}

// Ping checks that the backend accepts connections. Any HTTP status counts
// as reachable.
func (c *Client) Ping(ctx context.Context) (*nettrace.Metrics, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return nil, &NetworkError{Op: "ping", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "ping", Err: err}
	}
	return resp.Metrics, nil
}

func (c *Client) StartInterview(ctx context.Context, role string) (*StartResponse, error) {
	var out StartResponse
	if err := c.post(ctx, "start-interview", pathStart, startRequest{Role: role}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) (*SubmitResponse, error) {
	var out SubmitResponse
	if err := c.post(ctx, "submit-answer", pathSubmit, submitRequest{SessionID: sessionID, Answer: answer}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSummary(ctx context.Context, sessionID string) (*Summary, error) {
	var out Summary
	if err := c.post(ctx, "get-summary", pathSummary, sessionRequest{SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelInterview asks the backend to drop a session. The body of the ack is
// ignored.
func (c *Client) CancelInterview(ctx context.Context, sessionID string) error {
	return c.post(ctx, "cancel-interview", pathCancel, sessionRequest{SessionID: sessionID}, nil)
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &ProtocolError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warnf("%s request %s failed: %v", op, reqID, err)
		return &NetworkError{Op: op, Err: err}
	}
	log.APICall(op, resp.StatusCode, resp.Metrics.TTFB, resp.Metrics.Total, resp.Metrics.ConnReused)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
			Body:       snippet(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &ProtocolError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       snippet(resp.Body),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// errorMessage extracts the backend's {"error": "..."} text if present.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		cut := maxBodySnippet
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
