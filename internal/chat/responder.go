package chat

import (
	"context"
	"errors"

	"github.com/skyops/crewdeck/internal/rosterd"
)

// Provider names for the assistant transport.
const (
	ProviderBackend = "backend"
	ProviderOpenAI  = "openai"
	ProviderGoogle  = "google"
)

// Responder produces the assistant's reply for one user turn. The
// default responder is the scheduling service's own chat endpoint; the
// LLM providers exist for deployments where that endpoint is disabled.
type Responder interface {
	Respond(ctx context.Context, message string, chatContext map[string]any) (*rosterd.ChatReply, error)
}

// BackendResponder routes chat turns through the scheduling service.
type BackendResponder struct {
	client *rosterd.Client
}

func NewBackendResponder(client *rosterd.Client) *BackendResponder {
	return &BackendResponder{client: client}
}

func (r *BackendResponder) Respond(ctx context.Context, message string, chatContext map[string]any) (*rosterd.ChatReply, error) {
	return r.client.DisruptionChat(ctx, message, chatContext)
}

// NewResponder builds the responder for the configured provider.
func NewResponder(provider, apiKey, model string, client *rosterd.Client) (Responder, error) {
	switch provider {
	case ProviderBackend, "":
		return NewBackendResponder(client), nil
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, errors.New("openai provider requires an API key")
		}
		return NewOpenAIResponder(apiKey, model), nil
	case ProviderGoogle:
		if apiKey == "" {
			return nil, errors.New("google provider requires an API key")
		}
		return NewGoogleResponder(apiKey, model), nil
	default:
		return nil, errors.New("unsupported chat provider: " + provider)
	}
}
