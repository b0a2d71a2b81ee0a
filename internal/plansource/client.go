// Package plansource supplies raw cook plans: from an OpenAI-compatible chat
// endpoint, or from a built-in offline catalog.
package plansource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hammamikhairi/cookplan/internal/logger"
)

// ErrTruncated is returned when the model stopped at the token limit. A plan
// cut off mid-way is never valid, so the reply is not handed on.
var ErrTruncated = errors.New("plansource: reply truncated at token limit")

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const finishLength = "length"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is one request for a plan reply.
type Completion struct {
	Messages []Message
	// JSON asks for a JSON object reply when the client has JSON mode on.
	JSON bool
}

// Usage is the token accounting reported by the endpoint.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Reply is the first choice of a completion.
type Reply struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// APIError is a non-200 answer from the endpoint.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("plansource: API %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("plansource: API %d: %s", e.StatusCode, e.Message)
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel overrides the default model name.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// WithMaxTokens sets the reply token limit.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.maxTokens = n }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithJSONMode controls whether JSON completions send response_format.
// Defaults to on.
func WithJSONMode(on bool) ClientOption {
	return func(c *Client) { c.jsonMode = on }
}

// Client sends plan completions to an OpenAI-compatible chat endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	jsonMode    bool
	http        *http.Client
	log         *logger.Logger
}

// NewClient creates a client for the chat/completions resource at endpoint.
// apiKey is sent both as "api-key" (Azure) and as a bearer token.
func NewClient(endpoint, apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		temperature: 0.4,
		maxTokens:   2048,
		jsonMode:    true,
		http:        &http.Client{Timeout: 60 * time.Second},
		log:         log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends one completion and returns the first choice.
func (c *Client) Complete(ctx context.Context, comp Completion) (*Reply, error) {
	body := completionRequest{
		Model:       c.model,
		Messages:    comp.Messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if comp.JSON && c.jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("plansource: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("plansource: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plansource: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("plansource: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, raw)
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("plansource: decoding response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("plansource: response has no choices")
	}

	first := out.Choices[0]
	reply := &Reply{
		Content:      first.Message.Content,
		FinishReason: first.FinishReason,
		Usage:        out.Usage,
	}
	c.log.Debug("plansource: completion in %s (finish=%s, tokens=%d+%d)",
		time.Since(start).Round(time.Millisecond), reply.FinishReason,
		reply.Usage.PromptTokens, reply.Usage.CompletionTokens)

	if reply.FinishReason == finishLength {
		return reply, fmt.Errorf("%w (max_tokens=%d)", ErrTruncated, c.maxTokens)
	}
	return reply, nil
}

// apiError decodes the endpoint's error envelope, falling back to the raw
// body for proxies that answer in plain text.
func apiError(status int, body []byte) error {
	e := &APIError{StatusCode: status}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		e.Type = env.Error.Type
		e.Message = env.Error.Message
		return e
	}
	e.Message = truncate(string(bytes.TrimSpace(body)), 200)
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
