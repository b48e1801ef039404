package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// responseSchema gates whether a model response counts as the expected
// structured format. It is deliberately loose: per-candidate rules (option
// counts, answer index bounds) are the validator's job, not the parser's.
const responseSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "object",
      "properties": {
        "mcq": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["question", "options", "answerIndex"],
            "properties": {
              "id": {"type": "string"},
              "question": {"type": "string"},
              "options": {"type": "array", "items": {"type": "string"}},
              "answerIndex": {"type": "integer"},
              "explanation": {"type": "string"}
            }
          }
        },
        "short": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["prompt", "expectedKeywords"],
            "properties": {
              "id": {"type": "string"},
              "prompt": {"type": "string"},
              "expectedKeywords": {"type": "array", "items": {"type": "string"}}
            }
          }
        }
      }
    }
  }
}`

const defaultBackoffBase = time.Second

// callState tracks the retry/correction state machine around one logical
// generation call.
type callState int

const (
	stateAttempting callState = iota
	stateAwaitingCorrection
	stateSucceeded
	stateFailed
)

// Usage is the approximate token accounting of one logical generation call,
// corrective round included.
type Usage struct {
	PromptTokens int
	OutputTokens int
}

func (u *Usage) add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.OutputTokens += other.OutputTokens
}

// Client wraps the remote text generator with retry/backoff on transient
// failures and a single corrective reformat round for malformed output.
type Client struct {
	generator   domain.TextGenerator
	maxRetries  int
	backoffBase time.Duration
	maxTokens   int
	schema      *gojsonschema.Schema
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBackoffBase overrides the base delay of the exponential backoff.
func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *Client) { c.backoffBase = d }
}

// WithMaxTokens caps the completion length requested from the model.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.maxTokens = n }
}

// NewClient creates a generation client. maxRetries bounds the extra
// attempts made after a timeout or rate-limit failure.
func NewClient(generator domain.TextGenerator, maxRetries int, opts ...ClientOption) *Client {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		panic(fmt.Sprintf("quizgen: invalid response schema: %v", err))
	}
	c := &Client{
		generator:   generator,
		maxRetries:  maxRetries,
		backoffBase: defaultBackoffBase,
		maxTokens:   2000,
		schema:      schema,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate issues one logical generation call and parses the response into
// a question set. Timeout and rate-limit failures are retried with
// exponential backoff; a response that is not valid structured output gets
// one corrective follow-up prompt before the call is declared malformed.
func (c *Client) Generate(ctx context.Context, prompt Prompt, temperature float64) (*domain.QuestionSet, Usage, error) {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: prompt.System},
		{Role: domain.RoleUser, Content: prompt.User},
	}

	var usage Usage
	var set *domain.QuestionSet
	var finalErr error

	for state := stateAttempting; state != stateSucceeded && state != stateFailed; {
		response, callUsage, err := c.completeWithRetry(ctx, messages, temperature)
		usage.add(callUsage)
		if err != nil {
			state, finalErr = stateFailed, err
			continue
		}

		parsed, parseErr := c.parseQuestionSet(response)
		switch {
		case parseErr == nil:
			state, set = stateSucceeded, parsed
		case state == stateAttempting:
			// One corrective round: hand the model its own output back and
			// ask for valid structured data.
			logger.Get().Warn("Malformed generation response, requesting correction",
				zap.Error(parseErr))
			state = stateAwaitingCorrection
			messages = append(messages,
				domain.ChatMessage{Role: domain.RoleAssistant, Content: response},
				domain.ChatMessage{Role: domain.RoleUser, Content: correctionPrompt},
			)
		default:
			state, finalErr = stateFailed, domain.NewGenerationMalformedError(parseErr)
		}
	}

	if finalErr != nil {
		return nil, usage, finalErr
	}
	return set, usage, nil
}

// completeWithRetry performs a single model invocation with up to
// maxRetries additional attempts on retryable failures.
func (c *Client) completeWithRetry(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, Usage, error) {
	var usage Usage
	for _, m := range messages {
		usage.PromptTokens += EstimateTokens(m.Content)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.backoffBase<<(attempt-1)); err != nil {
				return "", usage, domain.NewGenerationTimeoutError(err)
			}
		}

		response, err := c.generator.Complete(ctx, domain.CompletionRequest{
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   c.maxTokens,
		})
		if err == nil {
			usage.OutputTokens += EstimateTokens(response)
			return response, usage, nil
		}
		lastErr = err
		if !domain.IsRetryableGenerationError(err) {
			return "", usage, err
		}
		logger.Get().Warn("Retryable generation failure",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.maxRetries+1),
			zap.Error(err))
	}
	return "", usage, lastErr
}

// parseQuestionSet strips formatting noise, checks the response against the
// expected schema, and decodes it.
func (c *Client) parseQuestionSet(response string) (*domain.QuestionSet, error) {
	cleaned := cleanModelResponse(response)

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("response does not match expected shape: %s", schemaErrors(result))
	}

	var envelope struct {
		Questions domain.QuestionSet `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &envelope.Questions, nil
}

func schemaErrors(result *gojsonschema.Result) string {
	var parts []string
	for _, desc := range result.Errors() {
		parts = append(parts, desc.String())
	}
	return strings.Join(parts, "; ")
}

// cleanModelResponse removes markdown fences and reasoning preambles that
// some models wrap around their JSON output.
func cleanModelResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd != -1 {
			cleaned = cleaned[thinkEnd+len("</think>"):]
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
