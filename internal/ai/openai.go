package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAI backend speaking the chat completions API.
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, prompt string, opts Options) ([]string, error) {
	count := trackCount(opts.SizeTier)
	payload := chatRequest{
		Model: "gpt-4o",
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(opts, count)},
			{Role: "user", Content: buildUserPrompt(prompt, count)},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: o.Name(), Kind: KindUnavailable, Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: o.Name(), Kind: KindUnavailable, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: o.Name(), Kind: KindUnavailable, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if pe := classifyStatus(o.Name(), resp.StatusCode); pe != nil {
		return nil, pe
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: o.Name(), Kind: KindUnavailable, Message: "decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: o.Name(), Kind: KindEmptyResponse, Message: "no choices in response"}
	}

	recommendations := ParseRecommendations(parsed.Choices[0].Message.Content)
	if len(recommendations) == 0 {
		return nil, &ProviderError{Provider: o.Name(), Kind: KindEmptyResponse, Message: "no recommendations parsed"}
	}
	return recommendations, nil
}
