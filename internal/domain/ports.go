package domain

import (
	"context"
	"time"
)

// Chat message roles understood by the text generators.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a model conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a single remote model invocation.
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// TextGenerator is the remote model endpoint: arbitrary prompt in, text out.
// Implementations translate provider-specific failures into the generation
// error taxonomy (timeout, rate limited, unavailable).
type TextGenerator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Cache defines the caching operations used by the service layer.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// QuizArchive persists successful generation runs for later retrieval.
type QuizArchive interface {
	SaveRun(ctx context.Context, run *ArchivedRun) error
	GetRun(ctx context.Context, id string) (*ArchivedRun, error)
	ListRuns(ctx context.Context, limit int) ([]*ArchivedRun, error)
}

// ArchivedRun is a persisted generation result.
type ArchivedRun struct {
	ID         string
	NotesHash  string
	Strategy   Strategy
	Chunks     int
	MCQCount   int
	ShortCount int
	Questions  QuestionSet
	CreatedAt  time.Time
}
