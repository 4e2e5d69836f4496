package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/skyops/crewdeck/internal/rosterd"
	"google.golang.org/api/option"
)

const defaultGoogleModel = "gemini-1.5-flash"

// GoogleResponder answers disruption queries with a Gemini model.
type GoogleResponder struct {
	apiKey string
	model  string
}

func NewGoogleResponder(apiKey, model string) *GoogleResponder {
	if model == "" {
		model = defaultGoogleModel
	}
	return &GoogleResponder{apiKey: apiKey, model: model}
}

func (r *GoogleResponder) Respond(ctx context.Context, message string, chatContext map[string]any) (*rosterd.ChatReply, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(r.apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	userPrompt := message
	if len(chatContext) > 0 {
		ctxJSON, err := json.Marshal(chatContext)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chat context: %w", err)
		}
		userPrompt = fmt.Sprintf("%s\n\nOperational context:\n%s", message, string(ctxJSON))
	}

	model := client.GenerativeModel(r.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(disruptionSystemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response from Gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return nil, errors.New("empty response from Gemini")
	}

	return &rosterd.ChatReply{
		Response:         text,
		SuggestedActions: defaultSuggestedActions(),
	}, nil
}
