package domain

import "context"

// GenerationStatus is the terminal state of a generation run.
type GenerationStatus string

const (
	StatusDone   GenerationStatus = "done"
	StatusFailed GenerationStatus = "failed"
)

// Strategy identifies how a run was executed.
type Strategy string

const (
	StrategySingle  Strategy = "single"
	StrategyChunked Strategy = "chunked"
)

// TokenCounts carries approximate token accounting for a run.
type TokenCounts struct {
	Notes    int `json:"notes"`
	PromptIn int `json:"promptIn"`
	ModelOut int `json:"modelOut"`
}

// GenerationMeta describes how a run was executed.
type GenerationMeta struct {
	Strategy    Strategy    `json:"strategy"`
	Chunks      int         `json:"chunks"`
	TokenCounts TokenCounts `json:"tokenCounts"`
}

// GenerationResult is the caller-visible outcome of a generation run.
// A run that produced fewer questions than requested is still StatusDone;
// StatusFailed means zero usable questions with an explicit cause.
type GenerationResult struct {
	Status    GenerationStatus `json:"status"`
	Questions QuestionSet      `json:"questions"`
	Meta      GenerationMeta   `json:"meta"`
	Warnings  []string         `json:"warnings,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// GenerationOptions are the per-run knobs of the orchestrator.
type GenerationOptions struct {
	MaxMCQ               int
	MaxShort             int
	SingleCallTokenLimit int
	ChunkTargetTokens    int
	PerChunkMCQ          int
	PerChunkShort        int
	MapConcurrency       int
	Temperature          float64
}

// QuestionGenerator produces a question set from study notes.
// Implemented by the strategy orchestrator; mocked in service tests.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, notes string, opts GenerationOptions) (*GenerationResult, error)
}
