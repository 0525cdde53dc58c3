package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiComplete(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "generated reply"}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewGemini(GeminiOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	out, err := g.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "generated reply" {
		t.Fatalf("out = %q", out)
	}
	if gotPath != "/v1beta/models/gemini-2.0-flash-lite:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "k" {
		t.Fatalf("key = %q", gotKey)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "sys" {
		t.Fatalf("system instruction = %+v", gotBody.SystemInstruction)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "user" {
		t.Fatalf("contents = %+v", gotBody.Contents)
	}
	if gotBody.GenerationConfig.MaxOutputTokens != 120 {
		t.Fatalf("maxOutputTokens = %d", gotBody.GenerationConfig.MaxOutputTokens)
	}
}

func TestGeminiCompleteErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":429,"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGemini(GeminiOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := g.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on 429")
	} else if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error = %v", err)
	}
}

func TestAzureComplete(t *testing.T) {
	t.Parallel()

	var gotPath, gotAPIVersion, gotKey string
	var gotBody azureRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIVersion = r.URL.Query().Get("api-version")
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "azure reply"}},
			},
		})
	}))
	defer srv.Close()

	a := NewAzure(AzureOptions{Endpoint: srv.URL, APIKey: "ak", Deployment: "gpt", HTTPClient: srv.Client()})
	out, err := a.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "azure reply" {
		t.Fatalf("out = %q", out)
	}
	if gotPath != "/openai/deployments/gpt/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAPIVersion != "2023-12-01-preview" {
		t.Fatalf("api-version = %q", gotAPIVersion)
	}
	if gotKey != "ak" {
		t.Fatalf("api-key = %q", gotKey)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Content != "user" {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
	if gotBody.Temperature != 0.7 || gotBody.MaxTokens != 120 {
		t.Fatalf("generation params = %+v", gotBody)
	}
}

func TestAzureNotConfigured(t *testing.T) {
	t.Parallel()

	a := NewAzure(AzureOptions{})
	if a.Available() {
		t.Fatal("Available() should be false without credentials")
	}
	if _, err := a.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error when not configured")
	}
}
