// Package parse turns free-form routine text into a structured routine
// through an OpenAI-compatible chat-completions endpoint.
package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	routinepdf "github.com/alnah/go-routinepdf"
)

// Defaults for the parse endpoint.
const (
	DefaultEndpoint = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultModel    = "google/gemini-3-flash-preview"
	DefaultTimeout  = 60 * time.Second

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv = "LOVABLE_API_KEY"
)

// maxResponseSize bounds the upstream body read.
const maxResponseSize = 4 << 20

// Parser converts routine text into a Routine.
type Parser interface {
	Parse(ctx context.Context, text string) (*routinepdf.Routine, error)
}

// Compile-time interface check.
var _ Parser = (*Client)(nil)

// Client calls the chat-completions endpoint. Safe for concurrent use.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the chat-completions URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithModel sets the model name sent with each request.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout applies as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. It sets the timeout on a copy, so a
// client passed to WithHTTPClient is left unchanged.
// Panics if d <= 0.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("parse: WithTimeout duration must be positive")
	}
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		model:    DefaultModel,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Wire types for the chat-completions API.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  object `json:"parameters,omitempty"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []tool        `json:"tools"`
	ToolChoice tool          `json:"tool_choice"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) newRequest(text string) chatRequest {
	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Tools: []tool{{
			Type: "function",
			Function: toolFunction{
				Name:        toolName,
				Description: "Return structured workout or meal plan data",
				Parameters:  toolParameters(),
			},
		}},
		ToolChoice: tool{Type: "function", Function: toolFunction{Name: toolName}},
	}
}

// Parse sends text to the endpoint and decodes the forced tool call.
// It makes exactly one request; there are no retries.
func (c *Client) Parse(ctx context.Context, text string) (*routinepdf.Routine, error) {
	body, err := json.Marshal(c.newRequest(text))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstream, err)
	}

	c.logger.Debug("parse request",
		slog.Int("status", resp.StatusCode),
		slog.Int("inputLength", len(text)),
		slog.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrPaymentRequired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("parse service error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(string(data), 512)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	return decodeResponse(data)
}

// decodeResponse extracts the routine from the first choice: tool-call
// arguments first, then the message content.
func decodeResponse(data []byte) (*routinepdf.Routine, error) {
	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	msg := cr.Choices[0].Message
	var payload string
	switch {
	case len(msg.ToolCalls) > 0 && msg.ToolCalls[0].Function.Arguments != "":
		payload = msg.ToolCalls[0].Function.Arguments
	case strings.TrimSpace(msg.Content) != "":
		payload = stripCodeFence(msg.Content)
	default:
		return nil, fmt.Errorf("%w: empty message", ErrMalformedResponse)
	}

	var r routinepdf.Routine
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	kind, err := routinepdf.ParseKind(string(r.Kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	r.Kind = kind
	if strings.TrimSpace(r.Title) == "" {
		r.Title = kind.Label()
	}
	return &r, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
