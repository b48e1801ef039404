package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"quizforge/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITextGenerator implements domain.TextGenerator against the OpenAI
// chat completion API.
type OpenAITextGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAITextGenerator creates an OpenAI-backed text generator.
func NewOpenAITextGenerator(apiKey, model string) (*OpenAITextGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key cannot be empty")
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAITextGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

var _ domain.TextGenerator = (*OpenAITextGenerator)(nil)

// Complete implements domain.TextGenerator. Provider failures are translated
// into the generation error taxonomy so the client's retry policy can act on
// them.
func (g *OpenAITextGenerator) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", translateOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewGenerationMalformedError(fmt.Errorf("no choices in completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}

func translateOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewGenerationTimeoutError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return domain.NewGenerationRateLimitedError(err)
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout:
			return domain.NewGenerationTimeoutError(err)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return domain.NewGenerationUnavailableError(err)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusInternalServerError {
		return domain.NewGenerationUnavailableError(err)
	}

	return domain.NewGenerationUnavailableError(err)
}
