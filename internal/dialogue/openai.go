package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// OpenAIConfig holds settings for an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// OpenAIGenerator implements Generator against any OpenAI-compatible
// chat completions API.
type OpenAIGenerator struct {
	config OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAIGenerator creates a generator. The timeout bounds the
// dominant latency source of an interaction; callers fall back to
// templates when it trips.
func NewOpenAIGenerator(cfg OpenAIConfig, logger *zap.Logger) *OpenAIGenerator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	return &OpenAIGenerator{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the chat model for an in-character response.
func (g *OpenAIGenerator) Generate(ctx context.Context, pc *PromptContext) (string, error) {
	messages := []chatMessage{{Role: "system", Content: BuildSystemPrompt(pc)}}
	for _, turn := range pc.History {
		role := "user"
		if turn.Speaker == pc.TargetName {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: pc.Content})

	body, err := json.Marshal(chatRequest{
		Model:       g.config.Model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   200,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var oaiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(oaiResp.Choices) == 0 || oaiResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from provider")
	}
	return oaiResp.Choices[0].Message.Content, nil
}
