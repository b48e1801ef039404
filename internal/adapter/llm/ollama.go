package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quizforge/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaTextGenerator implements domain.TextGenerator against a local
// Ollama server via LangchainGo.
type OllamaTextGenerator struct {
	llm *ollama.LLM
}

// NewOllamaTextGenerator creates an Ollama-backed text generator.
func NewOllamaTextGenerator(serverURL, model string) (*OllamaTextGenerator, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     10 * time.Second,
		},
	}
	llmClient, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaTextGenerator{llm: llmClient}, nil
}

var _ domain.TextGenerator = (*OllamaTextGenerator)(nil)

// Complete implements domain.TextGenerator.
func (g *OllamaTextGenerator) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.NewGenerationTimeoutError(err)
		}
		return "", domain.NewGenerationUnavailableError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewGenerationMalformedError(fmt.Errorf("no choices in completion response"))
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case domain.RoleSystem:
		return llms.ChatMessageTypeSystem
	case domain.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
