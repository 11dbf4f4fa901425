package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-5.1"

// OpenAI completes drafts with the chat completions API and a strict JSON
// schema response format.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds an OpenAI completer. baseURL may be empty.
func NewOpenAI(apiKey, model, baseURL string, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// CompleteDraft implements Completer.
func (o *OpenAI) CompleteDraft(ctx context.Context, instructions string) ([]byte, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: instructions},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "blog_draft",
				Schema: openAISchema(),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices in response")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("openai: model refused: %s", msg.Refusal)
	}
	if msg.Content == "" {
		return nil, fmt.Errorf("openai: empty content (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return []byte(msg.Content), nil
}
