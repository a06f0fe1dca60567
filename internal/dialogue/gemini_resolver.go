package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/bdafahim/OmniAssist/internal/session"
)

const geminiSystemPrompt = "You are a concise customer service assistant for a %s business. " +
	"Answer in one or two sentences. If you do not know, say you will have a human follow up."

// GeminiResolver answers unknown-topic utterances with Google's Gemini API.
type GeminiResolver struct {
	client       *genai.Client
	modelID      string
	businessType string
}

// NewGeminiResolver creates a Gemini-backed unknown-topic resolver.
func NewGeminiResolver(ctx context.Context, apiKey, modelID, businessType string) (*GeminiResolver, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("dialogue: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("dialogue: failed to create gemini client: %w", err)
	}

	return &GeminiResolver{
		client:       client,
		modelID:      modelID,
		businessType: businessType,
	}, nil
}

// Resolve sends the utterance plus transcript to Gemini and returns the
// generated reply.
func (r *GeminiResolver) Resolve(ctx context.Context, text string, history []session.Turn) (string, error) {
	model := r.client.GenerativeModel(r.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(fmt.Sprintf(geminiSystemPrompt, r.businessType)))

	cs := model.StartChat()
	for _, turn := range history {
		content := strings.TrimSpace(turn.Text)
		if content == "" {
			continue
		}
		role := "user"
		if turn.Role == session.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("dialogue: gemini completion failed: %w", err)
	}

	var out strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out.WriteString(string(t))
			}
		}
		break
	}
	return strings.TrimSpace(out.String()), nil
}

// Close releases the underlying API client.
func (r *GeminiResolver) Close() error {
	return r.client.Close()
}
