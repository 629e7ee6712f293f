package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropic_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("Missing anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.System != "system" {
			t.Errorf("System = %q, want %q", req.System, "system")
		}

		resp := anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: `{"approve":`},
				{Type: "text", Text: `false}`},
			},
			Usage: anthropicUsage{InputTokens: 100, OutputTokens: 10},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a, err := NewAnthropic("test-key", "", server.URL, server.Client())
	if err != nil {
		t.Fatalf("NewAnthropic error: %v", err)
	}

	resp, err := a.Complete(context.Background(), Request{
		SystemPrompt: "system",
		UserPrompt:   "user",
		MaxTokens:    10,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != `{"approve":false}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 110 {
		t.Errorf("TokensUsed = %d, want 110", resp.TokensUsed)
	}
}

func TestAnthropic_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	a, _ := NewAnthropic("bad-key", "", server.URL, server.Client())
	_, err := a.Complete(context.Background(), Request{UserPrompt: "x"})
	if !IsAuthError(err) {
		t.Errorf("IsAuthError(%v) = false, want true", err)
	}
}
