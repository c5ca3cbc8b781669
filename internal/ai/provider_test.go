package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("expected Authorization header")
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(chatResponse{
				Choices: []struct {
					Message chatMessage `json:"message"`
				}{{Message: chatMessage{Role: "assistant", Content: content}}},
			})
		}
	}))
}

func TestPerplexityGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "1. Song A - Artist A\n2. Song B - Artist B")
	defer srv.Close()

	p := &Perplexity{apiKey: "k", baseURL: srv.URL, httpClient: srv.Client()}
	got, err := p.Generate(context.Background(), "rock", Options{SizeTier: SizeShort})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Song A - Artist A" {
		t.Errorf("Generate = %v", got)
	}
}

func TestPerplexityStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindUnavailable},
		{http.StatusBadGateway, KindUnavailable},
	}
	for _, tt := range tests {
		srv := chatServer(t, tt.status, "")
		p := &Perplexity{apiKey: "k", baseURL: srv.URL, httpClient: srv.Client()}
		_, err := p.Generate(context.Background(), "rock", Options{})
		srv.Close()

		if !IsKind(err, tt.kind) {
			t.Errorf("status %d: err = %v, want kind %q", tt.status, err, tt.kind)
		}
	}
}

func TestPerplexityEmptyResponse(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "Sorry, I cannot help with that.")
	defer srv.Close()

	p := &Perplexity{apiKey: "k", baseURL: srv.URL, httpClient: srv.Client()}
	_, err := p.Generate(context.Background(), "rock", Options{})
	if !IsKind(err, KindEmptyResponse) {
		t.Errorf("err = %v, want kind %q", err, KindEmptyResponse)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "1. Song A - Artist A")
	defer srv.Close()

	o := &OpenAI{apiKey: "k", baseURL: srv.URL, httpClient: srv.Client()}
	got, err := o.Generate(context.Background(), "jazz", Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Generate = %v, want one recommendation", got)
	}
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("x-goog-api-key = %q", r.Header.Get("x-goog-api-key"))
		}
		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{{Content: geminiContent{Parts: []geminiPart{{Text: "1. Song A - Artist A\n2. Song B - Artist B"}}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := &Gemini{apiKey: "k", baseURL: srv.URL, httpClient: srv.Client()}
	got, err := g.Generate(context.Background(), "lofi", Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Generate = %v, want two recommendations", got)
	}
}

func TestFactoryForSettings(t *testing.T) {
	f := NewFactory(DefaultKeys{Perplexity: "pk", OpenAI: "ok"})

	tests := []struct {
		name     string
		settings Settings
		provider string
		wantErr  bool
	}{
		{"default", Settings{}, "perplexity", false},
		{"unknown falls back", Settings{Provider: "claude"}, "perplexity", false},
		{"openai default key", Settings{Provider: "openai"}, "openai", false},
		{"user key wins", Settings{Provider: "gemini", APIKey: "user-key"}, "gemini", false},
		{"no key anywhere", Settings{Provider: "gemini"}, "", true},
	}
	for _, tt := range tests {
		p, err := f.ForSettings(tt.settings)
		if tt.wantErr {
			if !IsKind(err, KindAuth) {
				t.Errorf("%s: err = %v, want kind %q", tt.name, err, KindAuth)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if p.Name() != tt.provider {
			t.Errorf("%s: provider = %q, want %q", tt.name, p.Name(), tt.provider)
		}
	}
}
