package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini completes drafts with the Gemini API using a JSON response schema.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini completer. baseURL may be empty.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

// CompleteDraft implements Completer.
func (g *Gemini) CompleteDraft(ctx context.Context, instructions string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(instructions), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   genaiSchema(),
	})
	if err != nil {
		return nil, err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini: empty response")
	}
	return []byte(text), nil
}
