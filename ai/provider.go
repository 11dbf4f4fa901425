package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/eringen/inkpost/blog"
)

// Config selects a completion provider.
type Config struct {
	Provider string // "openai" (default) or "gemini"
	APIKey   string
	Model    string
	BaseURL  string
}

// NewCompleter returns the configured provider. A missing API key yields
// blog.ErrConfiguration so callers can start without AI and report it per
// request.
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: missing AI API key", blog.ErrConfiguration)
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, nil), nil
	case "gemini", "google":
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown AI provider %q", blog.ErrConfiguration, cfg.Provider)
	}
}
