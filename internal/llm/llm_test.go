package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
)

func newTestServer(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model       string  `json:"model"`
			Temperature float32 `json:"temperature"`
			Messages    []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientComplete(t *testing.T) {
	var calls int32
	srv := newTestServer(t, http.StatusOK,
		`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hola"},"finish_reason":"stop"}]}`, &calls)

	c := New(srv.URL+"/v1", "test-key", "gpt-4o-mini", DefaultTemperature)
	got, err := c.Complete(context.Background(), prompts.Prompt{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hola" {
		t.Errorf("Complete = %q, want %q", got, "hola")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestClientCompleteUpstreamError(t *testing.T) {
	var calls int32
	srv := newTestServer(t, http.StatusInternalServerError,
		`{"error":{"message":"upstream exploded","type":"server_error"}}`, &calls)

	c := New(srv.URL+"/v1", "test-key", "gpt-4o-mini", DefaultTemperature)
	_, err := c.Complete(context.Background(), prompts.Prompt{System: "s", User: "u"})
	if !errors.Is(err, model.ErrGenerationFailed) {
		t.Fatalf("got %v, want ErrGenerationFailed", err)
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Errorf("upstream message lost: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want exactly one attempt", calls)
	}
}

func TestClientCompleteNoChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"1","object":"chat.completion","choices":[]}`, nil)

	c := New(srv.URL+"/v1", "test-key", "gpt-4o-mini", DefaultTemperature)
	_, err := c.Complete(context.Background(), prompts.Prompt{System: "s", User: "u"})
	if !errors.Is(err, model.ErrGenerationFailed) {
		t.Fatalf("got %v, want ErrGenerationFailed", err)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("  corto  ", 10); got != "corto" {
		t.Errorf("preview = %q", got)
	}
	if got := preview("ñññññ", 3); got != "ñññ..." {
		t.Errorf("preview = %q", got)
	}
}
