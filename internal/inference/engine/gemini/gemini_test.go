package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
)

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{})
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestGenerateTextSendsSystemAndSafety(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("path=%s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if _, ok := body["systemInstruction"]; !ok {
			t.Errorf("systemInstruction missing: %v", body)
		}
		if safety, _ := body["safetySettings"].([]any); len(safety) != 4 {
			t.Errorf("safetySettings=%v", body["safetySettings"])
		}
		gc, _ := body["generationConfig"].(map[string]any)
		if gc["responseMimeType"] != "application/json" {
			t.Errorf("generationConfig=%v", gc)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"steps\":[]}"}]}}]}`))
	}))
	defer srv.Close()

	e, err := New(context.Background(), config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := e.GenerateText(context.Background(), "gemini-2.5-flash", []engine.Message{
		{Role: "system", Content: "be kind"},
		{Role: "user", Content: "clean my room"},
	}, engine.GenerateOptions{Temperature: 0.7, JSON: true})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if out != `{"steps":[]}` {
		t.Fatalf("out=%q", out)
	}
}

func TestGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	e, err := New(context.Background(), config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.GenerateText(context.Background(), "gemini-2.5-flash", []engine.Message{{Role: "user", Content: "x"}}, engine.GenerateOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}
