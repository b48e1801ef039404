package dto

import (
	"time"

	"quizforge/internal/domain"
)

// GenerateQuizRequest is the request body for quiz generation. Zero-valued
// knobs fall back to the configured defaults.
type GenerateQuizRequest struct {
	Notes       string  `json:"notes"`
	MaxMCQ      int     `json:"maxMcq,omitempty"`
	MaxShort    int     `json:"maxShort,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// MCQQuestionResponse is one multiple-choice question in API responses.
type MCQQuestionResponse struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
}

// ShortQuestionResponse is one short-answer question in API responses.
type ShortQuestionResponse struct {
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	ExpectedKeywords []string `json:"expectedKeywords"`
}

// QuestionSetResponse groups generated questions by type.
type QuestionSetResponse struct {
	MCQ   []MCQQuestionResponse   `json:"mcq"`
	Short []ShortQuestionResponse `json:"short"`
}

// GenerationMetaResponse describes how a run was executed.
type GenerationMetaResponse struct {
	Strategy    string             `json:"strategy"`
	Chunks      int                `json:"chunks"`
	TokenCounts domain.TokenCounts `json:"tokenCounts"`
}

// QuizResponse is the outcome of one generation run.
type QuizResponse struct {
	Status    string                 `json:"status"`
	Questions QuestionSetResponse    `json:"questions"`
	Meta      GenerationMetaResponse `json:"meta"`
	Warnings  []string               `json:"warnings,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Cached    bool                   `json:"cached"`
	RunID     string                 `json:"runId,omitempty"`
}

// Job lifecycle states.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// JobResponse is the status of an asynchronous generation job.
type JobResponse struct {
	JobID       string        `json:"jobId"`
	Status      string        `json:"status"`
	SubmittedAt time.Time     `json:"submittedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Result      *QuizResponse `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// ArchivedRunResponse is one persisted run in API responses.
type ArchivedRunResponse struct {
	ID         string              `json:"id"`
	NotesHash  string              `json:"notesHash"`
	Strategy   string              `json:"strategy"`
	Chunks     int                 `json:"chunks"`
	MCQCount   int                 `json:"mcqCount"`
	ShortCount int                 `json:"shortCount"`
	Questions  QuestionSetResponse `json:"questions"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// QuestionSetToResponse maps a domain question set to its response form.
func QuestionSetToResponse(set domain.QuestionSet) QuestionSetResponse {
	out := QuestionSetResponse{
		MCQ:   make([]MCQQuestionResponse, 0, len(set.MCQ)),
		Short: make([]ShortQuestionResponse, 0, len(set.Short)),
	}
	for _, q := range set.MCQ {
		out.MCQ = append(out.MCQ, MCQQuestionResponse{
			ID:          q.ID,
			Question:    q.Question,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
			Explanation: q.Explanation,
		})
	}
	for _, q := range set.Short {
		out.Short = append(out.Short, ShortQuestionResponse{
			ID:               q.ID,
			Prompt:           q.Prompt,
			ExpectedKeywords: q.ExpectedKeywords,
		})
	}
	return out
}

// ResultToResponse maps a generation result to its response form.
func ResultToResponse(result *domain.GenerationResult) *QuizResponse {
	return &QuizResponse{
		Status:    string(result.Status),
		Questions: QuestionSetToResponse(result.Questions),
		Meta: GenerationMetaResponse{
			Strategy:    string(result.Meta.Strategy),
			Chunks:      result.Meta.Chunks,
			TokenCounts: result.Meta.TokenCounts,
		},
		Warnings: result.Warnings,
		Error:    result.Error,
	}
}

// ArchivedRunToResponse maps a persisted run to its response form.
func ArchivedRunToResponse(run *domain.ArchivedRun) *ArchivedRunResponse {
	return &ArchivedRunResponse{
		ID:         run.ID,
		NotesHash:  run.NotesHash,
		Strategy:   string(run.Strategy),
		Chunks:     run.Chunks,
		MCQCount:   run.MCQCount,
		ShortCount: run.ShortCount,
		Questions:  QuestionSetToResponse(run.Questions),
		CreatedAt:  run.CreatedAt,
	}
}
