package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini backend. The API has no system role on this endpoint, so both
// prompts are concatenated into a single user turn.
type Gemini struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) ([]string, error) {
	count := trackCount(opts.SizeTier)
	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{
				{Text: buildSystemPrompt(opts, count) + "\n\n" + buildUserPrompt(prompt, count)},
			}},
		},
	}
	payload.GenerationConfig.Temperature = 0.7
	payload.GenerationConfig.MaxOutputTokens = 1000

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindUnavailable, Message: "marshal request", Err: err}
	}

	url := g.baseURL + "/models/gemini-2.0-flash-exp:generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindUnavailable, Message: "build request", Err: err}
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindUnavailable, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if pe := classifyStatus(g.Name(), resp.StatusCode); pe != nil {
		return nil, pe
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindUnavailable, Message: "decode response", Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindEmptyResponse, Message: "no candidates in response"}
	}

	recommendations := ParseRecommendations(parsed.Candidates[0].Content.Parts[0].Text)
	if len(recommendations) == 0 {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindEmptyResponse, Message: "no recommendations parsed"}
	}
	return recommendations, nil
}
