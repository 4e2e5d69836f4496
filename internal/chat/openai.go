package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/skyops/crewdeck/internal/rosterd"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIResponder answers disruption queries with an OpenAI chat model
// instead of the scheduling service's own assistant.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(apiKey, model string) *OpenAIResponder {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIResponder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const disruptionSystemPrompt = `You are an airline crew disruption assistant. The user describes a delayed or cancelled flight; suggest roster recovery options: crew substitutions, duty-time legality concerns, and knock-on effects. Be concise and operational. Do not use emojis.`

func (r *OpenAIResponder) Respond(ctx context.Context, message string, chatContext map[string]any) (*rosterd.ChatReply, error) {
	userPrompt := message
	if len(chatContext) > 0 {
		ctxJSON, err := json.Marshal(chatContext)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chat context: %w", err)
		}
		userPrompt = fmt.Sprintf("%s\n\nOperational context:\n%s", message, string(ctxJSON))
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: disruptionSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return &rosterd.ChatReply{
		Response:         resp.Choices[0].Message.Content,
		SuggestedActions: defaultSuggestedActions(),
	}, nil
}

// defaultSuggestedActions is the quick-action set the LLM providers
// attach, since unlike the backend they cannot propose their own.
func defaultSuggestedActions() []rosterd.SuggestedAction {
	return []rosterd.SuggestedAction{
		{ID: string(ActionCrewSwap), Label: "Find replacement crew"},
		{ID: string(ActionDelayImpact), Label: "Assess delay impact"},
		{ID: string(ActionLegalityCheck), Label: "Check duty legality"},
	}
}
