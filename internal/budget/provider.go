package budget

import (
	"context"
	"fmt"
	"strings"
)

// Provider turns a prompt into plan text.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ProviderConfig struct {
	Kind     string
	APIKey   string
	Model    string
	Endpoint string
}

// NewProvider returns the offline provider when the gemini kind has no API key.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "gemini":
		if cfg.APIKey == "" {
			return offlineProvider{}, nil
		}
		return NewGeminiProvider(ctx, GeminiConfig{
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Endpoint: cfg.Endpoint,
		})
	case "offline", "fail":
		return offlineProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown budget provider %q", cfg.Kind)
	}
}

// IsOffline reports whether p never calls an external service.
func IsOffline(p Provider) bool {
	_, ok := p.(offlineProvider)
	return ok
}

type offlineProvider struct{}

func (offlineProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "", ErrProviderUnavailable
}
