package intent

import (
	"context"
	"errors"
	"log"
	"testing"

	"ai-taskpilot-be/pkg/llm"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(context.Context, string, ...llm.Option) (string, error) {
	return s.response, s.err
}

func newTestResolver(response string, err error) *Resolver {
	return NewResolver(&stubLLM{response: response, err: err}, log.New(log.Writer(), "", 0))
}

func TestResolveParsesModelOutput(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		query      string
		wantDomain string
		wantAction string
	}{
		{
			name:       "clean json",
			response:   `{"intent":"todo","action":"add"}`,
			query:      "remind me to buy milk",
			wantDomain: "todo",
			wantAction: "add",
		},
		{
			name:       "json wrapped in prose",
			response:   "Here is the classification: {\"intent\":\"todo\",\"action\":\"close\"} hope that helps",
			query:      "close the milk task",
			wantDomain: "todo",
			wantAction: "close",
		},
		{
			name:       "unknown action normalizes to other",
			response:   `{"intent":"todo","action":"destroy"}`,
			query:      "destroy the milk task",
			wantDomain: "todo",
			wantAction: "other",
		},
		{
			name:       "unknown domain normalizes to other",
			response:   `{"intent":"banking","action":"query"}`,
			query:      "check my balance",
			wantDomain: "other",
			wantAction: "query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(tt.response, nil)
			got, err := r.Resolve(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Domain != tt.wantDomain || got.Action != tt.wantAction {
				t.Errorf("got %s/%s, want %s/%s", got.Domain, got.Action, tt.wantDomain, tt.wantAction)
			}
		})
	}
}

func TestResolveFallsBackOnModelFailure(t *testing.T) {
	r := newTestResolver("", errors.New("connection refused"))

	got, err := r.Resolve(context.Background(), "remind me to buy milk tomorrow")
	if err != nil {
		t.Fatalf("fallback must not surface the model error: %v", err)
	}
	if !got.IsTodo() || got.Action != "add" {
		t.Errorf("keyword fallback got %s/%s, want todo/add", got.Domain, got.Action)
	}
}

func TestResolveFallsBackOnGarbage(t *testing.T) {
	r := newTestResolver("no json here at all", nil)

	got, err := r.Resolve(context.Background(), "close todo-1a2b3c4d please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsTodo() || got.Action != "close" {
		t.Errorf("id fallback got %s/%s, want todo/close", got.Domain, got.Action)
	}
}

func TestResolveNonTaskFallback(t *testing.T) {
	r := newTestResolver("garbage", nil)

	got, err := r.Resolve(context.Background(), "how is the weather in Jakarta?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsTodo() {
		t.Errorf("weather query classified as todo")
	}
}
