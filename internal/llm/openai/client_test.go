package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

func TestComplete(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-test-2025",
			"choices": [{"message": {"role": "assistant", "content": "Here: {\"risk_score\": 1}"}}],
			"usage": {"prompt_tokens": 33, "completion_tokens": 9}
		}`))
	}))
	defer srv.Close()

	c := New("sk-test", "gpt-test", srv.URL+"/v1/", nil)
	resp, err := c.Complete(context.Background(), &triage.LLMRequest{
		System:      "sys",
		User:        "usr",
		Temperature: 0.2,
		MaxTokens:   128,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Text != `Here: {"risk_score": 1}` {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Model != "gpt-test-2025" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.Usage.InputTokens != 33 || resp.Usage.OutputTokens != 9 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	if got.Model != "gpt-test" || got.Temperature != 0.2 || got.MaxTokens != 128 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestComplete_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "api error",
			status: http.StatusTooManyRequests,
			body:   `{"error": {"message": "rate limited"}}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
					t.Errorf("err = %v, want APIError 429", err)
				}
			},
		},
		{
			name:   "empty choices",
			status: http.StatusOK,
			body:   `{"choices": []}`,
		},
		{
			name:   "invalid body",
			status: http.StatusOK,
			body:   `not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New("k", "", srv.URL, nil).Complete(context.Background(), &triage.LLMRequest{User: "u"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestComplete_ContextCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := New("k", "", srv.URL, nil).Complete(ctx, &triage.LLMRequest{User: "u"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/models/gpt-test" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id": "gpt-test"}`))
	}))
	defer srv.Close()

	c := New("k", "gpt-test", srv.URL, nil)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if c.Model() != "gpt-test" {
		t.Errorf("model = %q", c.Model())
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	c := New("k", "", "", nil)
	if c.model != DefaultModel || c.baseURL != DefaultBaseURL || c.httpClient == nil {
		t.Errorf("defaults not applied: %+v", c)
	}
}

var _ triage.Provider = (*Client)(nil)
var _ triage.Pinger = (*Client)(nil)
