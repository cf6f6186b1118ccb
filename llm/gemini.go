package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/cotin/chatcotin/models"
)

// GeminiGenerator talks to the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a Gemini backend with an API key.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate implements Generator. The system message becomes the model's
// system instruction; the remaining messages form the content turns.
func (g *GeminiGenerator) Generate(ctx context.Context, msgs []models.Message, params Params) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(params.Temperature)),
		TopP:        genai.Ptr(float32(params.TopP)),
		TopK:        genai.Ptr(float32(params.TopK)),
	}

	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", wrapGenaiError(err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", &GenerationError{Kind: FailureUnknown, Message: "gemini returned no candidates"}
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
