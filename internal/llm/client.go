package llm

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotConfigured is returned when the model is used without an API key.
var ErrNotConfigured = errors.New("llm: language model not configured (GOOGLE_API_KEY missing)")

// Message is one entry of a chat exchange sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is the text-generation collaborator.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Prompt sends a single user prompt and returns the trimmed reply text.
func Prompt(ctx context.Context, c Client, prompt string, opts ...Option) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	req := Request{Messages: []Message{{Role: RoleUser, Content: prompt}}}
	for _, o := range opts {
		o(&req)
	}
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", errors.New("llm: empty completion")
	}
	return resp.Text, nil
}

// Option adjusts a Request built by Prompt.
type Option func(*Request)

func WithTemperature(t float32) Option { return func(r *Request) { r.Temperature = t } }

func WithMaxTokens(n int32) Option { return func(r *Request) { r.MaxTokens = n } }

func WithSystem(s string) Option {
	return func(r *Request) { r.System = append(r.System, s) }
}

type unconfigured struct{}

func (unconfigured) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}

// Unconfigured returns a Client whose every call fails with ErrNotConfigured.
// It lets the server start without a key and fail at the point of use.
func Unconfigured() Client { return unconfigured{} }
