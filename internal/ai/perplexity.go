package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const perplexityBaseURL = "https://api.perplexity.ai"

// Perplexity is the default backend.
type Perplexity struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPerplexity(apiKey string) *Perplexity {
	return &Perplexity{
		apiKey:  apiKey,
		baseURL: perplexityBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *Perplexity) Name() string { return "perplexity" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *Perplexity) Generate(ctx context.Context, prompt string, opts Options) ([]string, error) {
	count := trackCount(opts.SizeTier)
	payload := chatRequest{
		Model: "llama-3.1-sonar-small-128k-online",
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(opts, count)},
			{Role: "user", Content: buildUserPrompt(prompt, count)},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
		TopP:        0.9,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Kind: KindUnavailable, Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Kind: KindUnavailable, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Kind: KindUnavailable, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if pe := classifyStatus(p.Name(), resp.StatusCode); pe != nil {
		return nil, pe
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Kind: KindUnavailable, Message: "decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Kind: KindEmptyResponse, Message: "no choices in response"}
	}

	recommendations := ParseRecommendations(parsed.Choices[0].Message.Content)
	if len(recommendations) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Kind: KindEmptyResponse, Message: "no recommendations parsed"}
	}
	return recommendations, nil
}

// classifyStatus maps upstream HTTP status codes onto the error taxonomy.
// Returns nil for 2xx.
func classifyStatus(provider string, status int) *ProviderError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ProviderError{Provider: provider, Kind: KindAuth, Message: "credential rejected"}
	case status == http.StatusTooManyRequests:
		return &ProviderError{Provider: provider, Kind: KindRateLimited, Message: "rate limited upstream"}
	default:
		return &ProviderError{Provider: provider, Kind: KindUnavailable, Message: http.StatusText(status)}
	}
}
