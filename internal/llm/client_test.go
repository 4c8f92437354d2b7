package llm

import (
	"context"
	"errors"
	"testing"
)

type recordingClient struct {
	got  Request
	resp Response
	err  error
}

func (r *recordingClient) Complete(_ context.Context, req Request) (Response, error) {
	r.got = req
	return r.resp, r.err
}

func TestPrompt_AppliesOptions(t *testing.T) {
	c := &recordingClient{resp: Response{Text: "hello"}}

	out, err := Prompt(context.Background(), c, "say hi", WithTemperature(0.7), WithMaxTokens(150), WithSystem("be brief"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "hello" {
		t.Fatalf("unexpected text %q", out)
	}
	if c.got.Temperature != 0.7 || c.got.MaxTokens != 150 {
		t.Fatalf("options not applied: %+v", c.got)
	}
	if len(c.got.System) != 1 || len(c.got.Messages) != 1 || c.got.Messages[0].Role != RoleUser {
		t.Fatalf("unexpected request shape: %+v", c.got)
	}
}

func TestPrompt_EmptyCompletionIsAnError(t *testing.T) {
	if _, err := Prompt(context.Background(), &recordingClient{}, "x"); err == nil {
		t.Fatalf("expected error for empty completion")
	}
}

func TestUnconfigured_FailsAtPointOfUse(t *testing.T) {
	_, err := Prompt(context.Background(), Unconfigured(), "x")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), " ", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
