package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cotin/chatcotin/models"
)

// OllamaGenerator talks to a local Ollama server through its chat endpoint.
type OllamaGenerator struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllamaGenerator builds an Ollama chat backend.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	return &OllamaGenerator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

// Generate implements Generator against POST /api/chat.
func (g *OllamaGenerator) Generate(ctx context.Context, msgs []models.Message, params Params) (string, error) {
	chatMsgs := make([]models.OllamaChatMessage, len(msgs))
	for i, m := range msgs {
		chatMsgs[i] = models.OllamaChatMessage{Role: string(m.Role), Content: m.Content}
	}

	reqBody, err := json.Marshal(models.OllamaChatRequest{
		Model:    g.model,
		Messages: chatMsgs,
		Stream:   false,
		Options: &models.OllamaChatOptions{
			Temperature:   params.Temperature,
			TopP:          params.TopP,
			TopK:          params.TopK,
			NumCtx:        params.NumCtx,
			RepeatPenalty: params.RepeatPenalty,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", newStatusError(resp.StatusCode, string(bodyBytes))
	}

	var chatResp models.OllamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode ollama chat response: %w", err)
	}
	return chatResp.Message.Content, nil
}
